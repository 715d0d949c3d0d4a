// Package conlang mediates between users and LLM providers to translate
// constructed languages.
//
// It assembles a system/user prompt from the selected language pair, the
// relevant linguistic resource files and the user's settings, dispatches it
// to one of several interchangeable providers, parses the XML-tagged reply
// into a translation and optional explanation, and records the outcome in a
// bounded history.
//
// Basic usage:
//
//	import (
//	    "context"
//	    conlang "github.com/supastishn/conlang-translator"
//	    "github.com/supastishn/conlang-translator/history"
//	    "github.com/supastishn/conlang-translator/provider"
//	    "github.com/supastishn/conlang-translator/resource"
//	)
//
//	func main() {
//	    store, _ := history.NewStore(history.NewFileStore("history.json"))
//	    t := conlang.NewTranslator(provider.Resolve,
//	        conlang.WithResources(resource.NewLoader("https://example.org")),
//	        conlang.WithHistory(store),
//	    )
//
//	    settings := conlang.DefaultSettings()
//	    settings.APIKey = os.Getenv("OPENAI_API_KEY")
//
//	    res, err := t.Translate(context.Background(), conlang.TranslationRequest{
//	        SourceText: "Hello",
//	        SourceLang: conlang.English,
//	        TargetLang: conlang.Draconic,
//	        Settings:   settings,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Parsed.Translation)
//	}
package conlang
