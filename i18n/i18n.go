// Package i18n localizes outgoing bot text. Localization never fails:
// any gateway problem yields the source text unchanged.
package i18n

import "context"

// Translator renders source-language text into the target language.
type Translator interface {
	Localize(ctx context.Context, text, target string) string
}

// Func adapts a plain function to the Translator interface.
type Func func(ctx context.Context, text, target string) string

func (f Func) Localize(ctx context.Context, text, target string) string {
	return f(ctx, text, target)
}

// ResolveHint maps a client language hint to the language messages are
// rendered in. Ukrainian clients get the source language; an empty hint
// falls back to def; anything else is passed through as-is.
func ResolveHint(hint, def string) string {
	switch hint {
	case "":
		return def
	case "uk":
		return "ru"
	default:
		return hint
	}
}
