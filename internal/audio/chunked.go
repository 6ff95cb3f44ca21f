// Package audio decodes recorded answers sent by the browser.
package audio

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultChunkSize is the number of base64 characters decoded per step.
const DefaultChunkSize = 32 * 1024

// DecodeBase64Chunked decodes standard base64, optionally wrapped in a
// data URL, in slices of chunkSize characters. chunkSize is rounded down to
// a multiple of four so every slice but the last decodes without padding.
func DecodeBase64Chunked(s string, chunkSize int) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ";base64,"); i >= 0 {
			s = s[i+len(";base64,"):]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkSize -= chunkSize % 4
	if chunkSize == 0 {
		chunkSize = 4
	}

	enc := base64.StdEncoding
	out := make([]byte, 0, enc.DecodedLen(len(s)))
	buf := make([]byte, enc.DecodedLen(chunkSize))
	for off := 0; off < len(s); off += chunkSize {
		end := min(off+chunkSize, len(s))
		n, err := enc.Decode(buf, []byte(s[off:end]))
		if err != nil {
			return nil, fmt.Errorf("audio: invalid base64 near offset %d: %w", off, err)
		}
		out = append(out, buf[:n]...)
	}
	return out, nil
}
