// Package filter provides the profanity-cleaning step applied to every chat
// message before it is stored or broadcast.
package filter

import (
	goaway "github.com/TwiN/go-away"
)

// Filter censors profane words in message text.
type Filter struct {
	detector *goaway.ProfanityDetector
}

// New returns a Filter backed by the default profanity dictionary.
func New() *Filter {
	return &Filter{detector: goaway.NewProfanityDetector()}
}

// Clean replaces each profane word in text with asterisks. Clean text passes
// through unchanged.
func (f *Filter) Clean(text string) string {
	return f.detector.Censor(text)
}
