package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const DefaultGatewayModel = "google/gemini-2.5-flash"

// Gateway talks to an OpenAI compatible chat completions endpoint and forces
// a single tool call whose arguments carry the structured result.
type Gateway struct {
	client *resty.Client
	model  string
}

func NewGateway(baseURL, apiKey, model string) *Gateway {
	if model == "" {
		model = DefaultGatewayModel
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(90 * time.Second)
	return &Gateway{client: c, model: model}
}

func (g *Gateway) Close() error { return nil }

func (g *Gateway) GenerateStructured(ctx context.Context, req Request) (json.RawMessage, error) {
	var params map[string]any
	if req.Schema != nil {
		params = req.Schema.JSONSchema()
	}

	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":    g.model,
		"messages": messages,
		"tools": []map[string]any{{
			"type": "function",
			"function": map[string]any{
				"name":        req.Name,
				"description": req.Description,
				"parameters":  params,
			},
		}},
		"tool_choice": map[string]any{
			"type":     "function",
			"function": map[string]string{"name": req.Name},
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		msg := resp.String()
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: msg}
	}

	args := gjson.GetBytes(resp.Body(), "choices.0.message.tool_calls.0.function.arguments")
	if !args.Exists() {
		return nil, ErrNoStructuredResult
	}
	// some gateways return arguments as an object rather than a string
	raw := args.Raw
	if args.Type == gjson.String {
		raw = args.String()
	}
	return checkResult(req, []byte(raw))
}
