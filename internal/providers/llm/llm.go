package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Request is one schema-constrained generation call.
type Request struct {
	Name        string // function name, ex: "generate_questions"
	Description string
	System      string
	Prompt      string
	Schema      *Schema
}

type Provider interface {
	// GenerateStructured returns a JSON document that satisfies req.Schema.
	GenerateStructured(ctx context.Context, req Request) (json.RawMessage, error)
	Close() error
}

// ErrNoStructuredResult is returned when a response carries no tool call or
// no JSON payload.
var ErrNoStructuredResult = errors.New("llm: response carried no structured result")

// StatusError is a non-2xx answer from an HTTP backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: upstream status %d: %s", e.StatusCode, e.Body)
}

func checkResult(req Request, raw []byte) (json.RawMessage, error) {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, ErrNoStructuredResult
	}
	if req.Schema != nil {
		if err := Validate(req.Schema, raw); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(raw), nil
}
