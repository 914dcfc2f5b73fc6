package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 30 * time.Second

// Config configures the content generation client.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// GenerateInput describes the email the model should draft.
type GenerateInput struct {
	ProgramName        string `json:"program_name"`
	ProgramDescription string `json:"program_description,omitempty"`
	TemplateType       string `json:"template_type"`
	Tone               string `json:"tone,omitempty"`
	Instructions       string `json:"instructions,omitempty"`
}

// GeneratedEmail is the structured draft returned by the model.
type GeneratedEmail struct {
	Subject      string `json:"subject"`
	Content      string `json:"content"`
	PreviewText  string `json:"preview_text"`
	CallToAction string `json:"call_to_action"`
}

// Client calls an external completion endpoint to draft email content.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

// NewClient constructs a generation client from configuration.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("ai: endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		model:    strings.TrimSpace(cfg.Model),
		http:     &http.Client{Timeout: timeout},
	}, nil
}

type generateRequest struct {
	Model string        `json:"model,omitempty"`
	Input GenerateInput `json:"input"`
}

// Generate requests a drafted email for the given program and template type.
func (c *Client) Generate(ctx context.Context, input GenerateInput) (*GeneratedEmail, error) {
	if strings.TrimSpace(input.ProgramName) == "" {
		return nil, errors.New("ai: program name is required")
	}
	if strings.TrimSpace(input.TemplateType) == "" {
		return nil, errors.New("ai: template type is required")
	}

	payload, err := json.Marshal(generateRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.ErrAIUnavailable.WithInternal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrAIUnavailable.WithInternal(
			fmt.Errorf("ai: generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var generated GeneratedEmail
	if err := json.Unmarshal(body, &generated); err != nil {
		return nil, apperrors.ErrAIUnavailable.WithInternal(fmt.Errorf("ai: decode response: %w", err))
	}

	if strings.TrimSpace(generated.Subject) == "" && strings.TrimSpace(generated.Content) == "" {
		return nil, apperrors.ErrAIUnavailable.WithInternal(errors.New("ai: empty generation result"))
	}

	return &generated, nil
}
