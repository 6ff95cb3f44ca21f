package stt

import (
	"context"
	"strings"
)

// DefaultLanguage is used when the caller passes no BCP-47 tag.
const DefaultLanguage = "en-US"

// Provider turns a recorded answer into text. An empty transcript with a nil
// error means no speech was recognised.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}

// baseLanguage reduces a BCP-47 tag to its ISO-639-1 part, ex: "en" from "en-US".
func baseLanguage(tag string) string {
	if tag == "" {
		tag = DefaultLanguage
	}
	lang, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(strings.TrimSpace(lang))
}
