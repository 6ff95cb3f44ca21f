// Package docparse extracts plain text from uploaded resumes.
package docparse

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

type Kind string

const (
	KindPDF    Kind = "pdf"
	KindDOCX   Kind = "docx"
	KindText   Kind = "text"
	KindBinary Kind = "binary"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type Document struct {
	Kind  Kind
	Text  string
	Pages int // pdf only
	// Fallback is set when the format parser failed and the text came from
	// raw byte decoding.
	Fallback bool
}

var ErrEmpty = errors.New("docparse: empty document")

// Extract picks a parser from the declared content type, the file extension
// and the sniffed content, in that order. A parser failure falls back to
// best-effort decoding of the raw bytes and is never returned as an error.
func Extract(data []byte, declaredType, fileName string) (Document, error) {
	if len(data) == 0 {
		return Document{}, ErrEmpty
	}

	kind := detect(data, declaredType, fileName)
	var (
		doc Document
		err error
	)
	switch kind {
	case KindPDF:
		doc, err = extractPDF(data)
	case KindDOCX:
		doc, err = extractDOCX(data)
	case KindText:
		return Document{Kind: KindText, Text: strings.ToValidUTF8(string(data), "�")}, nil
	default:
		return Document{Kind: KindBinary, Text: printableRuns(data)}, nil
	}
	if err != nil || strings.TrimSpace(doc.Text) == "" {
		return Document{Kind: kind, Text: printableRuns(data), Fallback: true}, nil
	}
	return doc, nil
}

func detect(data []byte, declaredType, fileName string) Kind {
	if k, ok := kindOf(declaredType); ok {
		return k
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".txt", ".md":
		return KindText
	}
	if k, ok := kindOf(mimetype.Detect(data).String()); ok {
		return k
	}
	return KindBinary
}

func kindOf(contentType string) (Kind, bool) {
	ct, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), ";")
	switch {
	case ct == mimePDF:
		return KindPDF, true
	case ct == mimeDOCX:
		return KindDOCX, true
	case strings.HasPrefix(ct, "text/"):
		return KindText, true
	}
	return "", false
}

// printableRuns keeps runs of at least four printable characters, which is
// enough to recover readable text from legacy .doc files.
func printableRuns(data []byte) string {
	const minRun = 4
	var (
		sb  strings.Builder
		run []rune
	)
	flush := func() {
		if len(run) >= minRun {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.TrimSpace(string(run)))
		}
		run = run[:0]
	}
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r != utf8.RuneError && (unicode.IsPrint(r) || r == '\t') {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return sb.String()
}
