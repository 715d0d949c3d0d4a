package provider

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	conlang "github.com/supastishn/conlang-translator"
)

const sseDataPrefix = "data: "

// maxFrameSize bounds a single SSE frame; resource-laden prompts can provoke
// long delta lines from some gateways.
const maxFrameSize = 1024 * 1024

// assembleStream reads server-sent-event frames from r and concatenates the
// delta content of each frame into a running buffer. onPartial is invoked
// after every increment with the entire buffer so far, so each call observes
// a strictly growing prefix of the final text.
//
// A frame that is not valid JSON is skipped; one bad frame must not lose the
// rest of the stream. "data: [DONE]" or end of stream terminates assembly,
// and the fully assembled buffer is returned, identical in shape to a
// non-streamed reply.
func assembleStream(r io.Reader, onPartial func(string)) (string, error) {
	var buffer strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		data := strings.TrimSpace(line[len(sseDataPrefix):])
		if data == "[DONE]" {
			break
		}

		var frame openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			continue
		}
		if len(frame.Choices) == 0 {
			continue
		}
		delta := frame.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		buffer.WriteString(delta)
		if onPartial != nil {
			onPartial(buffer.String())
		}
	}

	if err := scanner.Err(); err != nil {
		if buffer.Len() > 0 {
			// Keep what arrived; the parser tolerates a truncated reply.
			return buffer.String(), nil
		}
		return "", &conlang.TransportError{Message: "reading response stream failed", Cause: err, Retryable: true}
	}

	return buffer.String(), nil
}
