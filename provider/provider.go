// Package provider implements the translation backends: the direct
// OpenAI-compatible API, the serverless backend function, and the keyless
// free-tier chat endpoint.
package provider

import (
	conlang "github.com/supastishn/conlang-translator"
)

// Provider is the backend interface. This is an alias to the main package
// interface for convenience.
type Provider = conlang.Provider

// Resolve maps request settings to the adapter for their provider kind.
// It is the standard Resolver passed to conlang.NewTranslator.
func Resolve(settings conlang.Settings) (Provider, error) {
	switch settings.Provider {
	case conlang.ProviderDirect:
		return NewDirectAPI(), nil
	case conlang.ProviderFunction:
		return NewFunctionCall(FunctionConfig{}), nil
	case conlang.ProviderFreeTier:
		return NewFreeTier(), nil
	default:
		return nil, &conlang.ConfigError{Message: "unsupported provider: " + string(settings.Provider)}
	}
}
