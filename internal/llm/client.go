package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// api is the subset of the go-openai client used here.
type api interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// Client provides chat, vision and image-generation calls.
type Client struct {
	api api
	cfg Config
}

// NewClient creates a client for the given configuration.
// Empty fields fall back to the package defaults. timeout bounds every
// HTTP request; zero uses DefaultTimeout.
func NewClient(cfg Config, timeout time.Duration) *Client {
	cfg = cfg.withDefaults()
	if timeout <= 0 {
		timeout = time.Duration(DefaultTimeout) * time.Second
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api: openai.NewClientWithConfig(oc),
		cfg: cfg,
	}
}

// ChatModel returns the configured chat model name.
func (c *Client) ChatModel() string {
	return c.cfg.ChatModel
}

// ImageModel returns the configured image model name.
func (c *Client) ImageModel() string {
	return c.cfg.ImageModel
}

// Chat sends a system prompt and one user message and returns the reply.
// userInput is passed through unchanged, including when it is empty.
func (c *Client) Chat(ctx context.Context, systemPrompt, userInput string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userInput},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	return firstContent(resp)
}

// AnalyzeImage asks the vision model to plan a sculpture from an image.
// dataURL is an inline data URL (see image.DataURL) or a remote URL.
func (c *Client) AnalyzeImage(ctx context.Context, dataURL string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.VisionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: AnalysisPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	return firstContent(resp)
}

// GenerateImage renders one square image and returns its remote URL.
// The URL is hosted by the provider and may expire.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Size:           c.cfg.ImageSize,
		Quality:        c.cfg.ImageQuality,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}

	resp, err := c.api.CreateImage(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("%w: no image data", ErrEmptyResponse)
	}
	return resp.Data[0].URL, nil
}

func firstContent(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyError maps transport and API failures to sentinel errors while
// keeping the provider's message.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", kindForStatus(apiErr.HTTPStatusCode), apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Err == nil {
			return fmt.Errorf("%w: %s", kindForStatus(reqErr.HTTPStatusCode), http.StatusText(reqErr.HTTPStatusCode))
		}
		return fmt.Errorf("%w: %v", kindForStatus(reqErr.HTTPStatusCode), reqErr.Err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrQuotaExceeded
	default:
		return ErrRequestFailed
	}
}
