// Package openai implements codereview.Reviewer against OpenAI-compatible
// chat completion APIs (OpenAI, Azure OpenAI, Groq) using the azopenai SDK.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// DefaultModel is the model requested when none is configured.
const DefaultModel = "llama-3.3-70b-versatile"

// ChatCompleter abstracts a chat completion API for testing.
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	Model       string // Model name, or Azure deployment name
	Prompt      string
	Temperature float32
}

// Compile-time interface verification.
var _ ChatCompleter = (*Client)(nil)

// Client wraps azopenai.Client.
type Client struct {
	client *azopenai.Client
}

// NewClient creates a client for a public OpenAI-compatible endpoint such as
// https://api.openai.com/v1 or https://api.groq.com/openai/v1.
func NewClient(endpoint, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	client, err := azopenai.NewClientForOpenAI(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("openai: create client: %w", err)
	}
	return &Client{client: client}, nil
}

// NewAzureClient creates a client for an Azure OpenAI resource endpoint.
func NewAzureClient(endpoint, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("openai: create azure client: %w", err)
	}
	return &Client{client: client}, nil
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.client.GetChatCompletions(
		ctx,
		azopenai.ChatCompletionsOptions{
			DeploymentName: to.Ptr(req.Model),
			Temperature:    to.Ptr(req.Temperature),
			Messages: []azopenai.ChatRequestMessageClassification{
				&azopenai.ChatRequestUserMessage{
					Content: azopenai.NewChatRequestUserMessageContent(req.Prompt),
				},
			},
		},
		nil,
	)
	if err != nil {
		return "", wrapAPIError(err)
	}

	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		return *resp.Choices[0].Message.Content, nil
	}
	return "", errors.New("openai: no completion received")
}

// APIError is an HTTP failure reported by the completion API.
type APIError struct {
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openai API error (HTTP %d): %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("openai API error (HTTP %d)", e.StatusCode)
}

// HTTPStatus implements codereview.HTTPStatuser.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

func wrapAPIError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return &APIError{StatusCode: respErr.StatusCode, Code: respErr.ErrorCode}
	}
	return err
}

// MockChatCompleter is a mock implementation of ChatCompleter for testing.
type MockChatCompleter struct {
	CompleteFn func(ctx context.Context, req CompletionRequest) (string, error)
}

func (m *MockChatCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return m.CompleteFn(ctx, req)
}
