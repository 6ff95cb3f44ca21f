package stt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const DefaultWhisperModel = "whisper-1"

// WhisperGateway posts audio to an OpenAI compatible /audio/transcriptions
// endpoint.
type WhisperGateway struct {
	client *resty.Client
	model  string
}

func NewWhisperGateway(baseURL, apiKey, model string) *WhisperGateway {
	if model == "" {
		model = DefaultWhisperModel
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(60 * time.Second)
	return &WhisperGateway{client: c, model: model}
}

func (w *WhisperGateway) Close() error { return nil }

func (w *WhisperGateway) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	form := map[string]string{"model": w.model}
	if lang := baseLanguage(language); lang != "" {
		form["language"] = lang
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetMultipartField("file", "audio.webm", "audio/webm", bytes.NewReader(audio)).
		SetFormData(form).
		Post("/audio/transcriptions")
	if err != nil {
		return "", 0, err
	}
	if resp.IsError() {
		return "", 0, fmt.Errorf("stt: upstream status %d: %s", resp.StatusCode(), resp.String())
	}

	text := gjson.GetBytes(resp.Body(), "text")
	if !text.Exists() {
		return "", 0, fmt.Errorf("stt: response has no text field")
	}
	// whisper reports no confidence
	return text.String(), 1, nil
}
