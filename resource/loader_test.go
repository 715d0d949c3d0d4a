package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	conlang "github.com/supastishn/conlang-translator"
	"github.com/supastishn/conlang-translator/cache"
)

// materialsServer serves a minimal materials tree and counts hits per path.
func materialsServer(t *testing.T, files map[string]string, hits map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits[r.URL.Path]++
		}
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".json") {
			w.Header().Set("Content-Type", "application/json")
		}
		w.Write([]byte(body))
	}))
}

func TestLoader_Load(t *testing.T) {
	srv := materialsServer(t, map[string]string{
		"/materials/grammar.txt": "# Draconic Grammar\nVSO order.",
	}, nil)
	defer srv.Close()

	l := NewLoader(srv.URL)

	got := l.Load(context.Background(), "/materials/grammar.txt")
	if got != "# Draconic Grammar\nVSO order." {
		t.Errorf("Load returned %q", got)
	}
}

func TestLoader_Load_NotFound(t *testing.T) {
	srv := materialsServer(t, nil, nil)
	defer srv.Close()

	l := NewLoader(srv.URL)

	got := l.Load(context.Background(), "/materials/missing.txt")
	want := "[Resource file (/materials/missing.txt) not found or could not be loaded]"
	if got != want {
		t.Errorf("Load returned %q, want %q", got, want)
	}
}

func TestLoader_Load_NetworkError(t *testing.T) {
	// Closed server: every request fails at the transport level.
	srv := materialsServer(t, nil, nil)
	srv.Close()

	l := NewLoader(srv.URL)

	got := l.Load(context.Background(), "/materials/grammar.txt")
	want := "[Resource /materials/grammar.txt could not be loaded due to an error]"
	if got != want {
		t.Errorf("Load returned %q, want %q", got, want)
	}
}

func TestLoader_Load_Cached(t *testing.T) {
	hits := map[string]int{}
	srv := materialsServer(t, map[string]string{
		"/materials/grammar.txt": "grammar body",
	}, hits)
	defer srv.Close()

	l := NewLoader(srv.URL, WithCache(cache.NewInMemoryCache(0)))

	for i := 0; i < 3; i++ {
		if got := l.Load(context.Background(), "/materials/grammar.txt"); got != "grammar body" {
			t.Fatalf("Load returned %q", got)
		}
	}
	if hits["/materials/grammar.txt"] != 1 {
		t.Errorf("Expected 1 fetch, got %d", hits["/materials/grammar.txt"])
	}
}

func TestLoader_DictionaryBundle_Index(t *testing.T) {
	index, _ := json.Marshal([]string{"Dictionary.csv", "notes.txt", "Phonology.csv"})
	srv := materialsServer(t, map[string]string{
		"/materials/csvs/index.json":     string(index),
		"/materials/csvs/Dictionary.csv": "word,meaning",
		"/materials/csvs/Phonology.csv":  "sound,ipa",
	}, nil)
	defer srv.Close()

	l := NewLoader(srv.URL)

	got := l.DictionaryBundle(context.Background())
	if !strings.Contains(got, "\n### Dictionary.csv ###\nword,meaning\n") {
		t.Errorf("Bundle missing Dictionary.csv section:\n%s", got)
	}
	if !strings.Contains(got, "\n### Phonology.csv ###\nsound,ipa\n") {
		t.Errorf("Bundle missing Phonology.csv section:\n%s", got)
	}
	// Non-CSV entries in the index are ignored.
	if strings.Contains(got, "notes.txt") {
		t.Errorf("Bundle should not include non-CSV files:\n%s", got)
	}
}

func TestLoader_DictionaryBundle_Fallback(t *testing.T) {
	// No index.json: the fixed fragment list is used, and missing files
	// degrade to placeholders rather than aborting the bundle.
	srv := materialsServer(t, map[string]string{
		"/materials/csvs/WIP - Draconic Dictionary - Dictionary.csv": "word,meaning",
	}, nil)
	defer srv.Close()

	l := NewLoader(srv.URL)

	got := l.DictionaryBundle(context.Background())
	if !strings.Contains(got, "### WIP - Draconic Dictionary - Dictionary.csv ###\nword,meaning") {
		t.Errorf("Bundle missing known fragment:\n%s", got)
	}
	if !strings.Contains(got, "### WIP - Draconic Dictionary - Phonology.csv ###\n[Resource file (") {
		t.Errorf("Bundle should carry placeholder for missing fragment:\n%s", got)
	}
}

func TestLoader_Block(t *testing.T) {
	index, _ := json.Marshal([]string{"Dictionary.csv"})
	srv := materialsServer(t, map[string]string{
		"/materials/csvs/index.json":           string(index),
		"/materials/csvs/Dictionary.csv":       "word,meaning",
		"/materials/grammar.txt":               "grammar body",
		"/materials/dwl.txt":                   "dwl rules",
		"/materials/conlangs/obwakimo.txt":     "obwa kimo rules",
		"/materials/conlangs/illuveterian.txt": "illuveterian rules",
	}, nil)
	defer srv.Close()

	l := NewLoader(srv.URL)
	ctx := context.Background()

	tests := []struct {
		name    string
		source  conlang.Language
		target  conlang.Language
		want    []string
		exclude []string
	}{
		{
			name:    "english to draconic",
			source:  conlang.English,
			target:  conlang.Draconic,
			want:    []string{"DRACONIC RESOURCES:", "Dictionary:", "word,meaning", "Grammar:", "grammar body"},
			exclude: []string{"DIACRITICAL WALUIGI", "OBWA KIMO", "ILLUVETERIAN"},
		},
		{
			name:    "dwl to english",
			source:  conlang.DWL,
			target:  conlang.English,
			want:    []string{"DIACRITICAL WALUIGI LANGUAGE RESOURCES:", "dwl rules"},
			exclude: []string{"DRACONIC RESOURCES", "OBWA KIMO", "ILLUVETERIAN"},
		},
		{
			name:   "obwa kimo target",
			source: conlang.English,
			target: conlang.ObwaKimo,
			want:   []string{"OBWA KIMO RESOURCES:", "obwa kimo rules"},
		},
		{
			name:   "illuveterian source",
			source: conlang.Illuveterian,
			target: conlang.English,
			want:   []string{"ILLUVETERIAN RESOURCES:", "illuveterian rules"},
		},
		{
			name:    "detect to english needs nothing",
			source:  conlang.Detect,
			target:  conlang.English,
			exclude: []string{"RESOURCES:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Block(ctx, tt.source, tt.target)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Block missing %q:\n%s", w, got)
				}
			}
			for _, e := range tt.exclude {
				if strings.Contains(got, e) {
					t.Errorf("Block should not contain %q:\n%s", e, got)
				}
			}
		})
	}
}
