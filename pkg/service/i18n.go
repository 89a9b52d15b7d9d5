package service

import "sync/atomic"

// Translator localizes user-facing guard messages. It receives the
// untranslated message (possibly a format string) and returns the text to
// show the user. Only presentation goes through it, never control flow.
type Translator func(message string) string

var translator atomic.Value

func init() {
	translator.Store(Translator(func(message string) string { return message }))
}

// SetTranslator installs a message localization hook. Pass nil to restore
// the identity translator.
func SetTranslator(t Translator) {
	if t == nil {
		t = func(message string) string { return message }
	}
	translator.Store(t)
}

// T translates a user-facing message through the installed Translator
func T(message string) string {
	return translator.Load().(Translator)(message)
}
