// internal/llm/openai.go

// Package llm wraps the OpenAI chat-completions API used to draft roadmaps
// and replies in the business owner's voice.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/textloop/textloop-backend/internal/config"
	"github.com/textloop/textloop-backend/internal/model"
)

// Draft is one roadmap item as produced by the model. SMSTiming follows the
// timing-label grammar ("Day 7, 10:00 AM" or "Immediate (...)").
type Draft struct {
	SMSContent       string `json:"sms_content"`
	SMSTiming        string `json:"sms_timing"`
	DayOffset        int    `json:"day_offset"`
	Relevance        string `json:"relevance,omitempty"`
	SuccessIndicator string `json:"success_indicator,omitempty"`
	NoResponsePlan   string `json:"no_response_plan,omitempty"`
}

// Client is the OpenAI REST client. All calls are bounded by the configured
// HTTP timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	model      string
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.OpenAIToken == "" {
		return nil, errors.New("OpenAI API token is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.OpenAITimeout},
		baseURL:    strings.TrimSuffix(cfg.OpenAIBaseURL, "/"),
		apiToken:   cfg.OpenAIToken,
		model:      cfg.OpenAIModel,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// GenerateRoadmap asks the model for an ordered batch of planned messages for
// one customer. A malformed or non-JSON reply fails the whole batch.
func (c *Client) GenerateRoadmap(ctx context.Context, business *model.Business, customer *model.Customer) ([]Draft, error) {
	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: roadmapSystemPrompt(business)},
		{Role: "user", Content: roadmapUserPrompt(customer)},
	}, true)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Messages []Draft `json:"messages"`
	}
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed roadmap response: %w", err)
	}
	if len(payload.Messages) == 0 {
		return nil, errors.New("roadmap response contained no messages")
	}
	return payload.Messages, nil
}

// DraftReply produces a reply to an inbound customer message, styled to the
// owner's voice profile.
func (c *Client) DraftReply(ctx context.Context, business *model.Business, history []model.Message, inbound string) (string, error) {
	messages := []chatMessage{{Role: "system", Content: replySystemPrompt(business)}}
	for _, m := range history {
		role := "assistant"
		if m.Type == model.MessageTypeReply && m.Metadata.Source == "customer" {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: m.Body})
	}
	messages = append(messages, chatMessage{Role: "user", Content: inbound})

	return c.complete(ctx, messages, false)
}

func (c *Client) complete(ctx context.Context, messages []chatMessage, jsonMode bool) (string, error) {
	reqPayload := chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	}
	if jsonMode {
		reqPayload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal openai response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned %d: %s", resp.StatusCode, respBody)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
