// Package ai calls a hosted text-generation model to explain blood donation
// topics in the asker's language.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUpstream wraps every failure of the model provider.
var ErrUpstream = errors.New("ai provider unavailable")

const promptPrefix = "Answer the following question concisely in the same language it was asked: "

type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Client is built once at startup and shared by all handlers.
type Client struct {
	http  *resty.Client
	model string
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
	Options    generateOptions    `json:"options"`
}

type generateParameters struct {
	MaxNewTokens int  `json:"max_new_tokens"`
	MinLength    int  `json:"min_length"`
	DoSample     bool `json:"do_sample"`
}

type generateOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

type providerError struct {
	Error string `json:"error"`
}

func New(cfg Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 503 means the model is still loading.
			return r != nil && r.StatusCode() == http.StatusServiceUnavailable
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: client, model: cfg.Model}
}

func (c *Client) Model() string {
	return c.model
}

// Prompt wraps a user question in the instruction sent to the model.
func Prompt(question string) string {
	return promptPrefix + strings.TrimSpace(question)
}

// Explain asks the model to answer question. The returned text is trimmed and
// never empty on success.
func (c *Client) Explain(ctx context.Context, question string) (string, error) {
	return c.generate(ctx, Prompt(question), generateParameters{MaxNewTokens: 256, MinLength: 20})
}

// Generate sends raw input without the instruction prefix, sampling enabled.
func (c *Client) Generate(ctx context.Context, input string) (string, error) {
	return c.generate(ctx, input, generateParameters{MaxNewTokens: 200, DoSample: true})
}

func (c *Client) generate(ctx context.Context, input string, params generateParameters) (string, error) {
	var out []generation
	var perr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Inputs:     input,
			Parameters: params,
			Options:    generateOptions{WaitForModel: true},
		}).
		SetResult(&out).
		SetError(&perr).
		ForceContentType("application/json").
		SetRawPathParam("model", c.model).
		Post("/models/{model}")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		msg := perr.Error
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode(), msg)
	}
	if len(out) == 0 || strings.TrimSpace(out[0].GeneratedText) == "" {
		return "", fmt.Errorf("%w: empty generation", ErrUpstream)
	}
	return strings.TrimSpace(out[0].GeneratedText), nil
}
