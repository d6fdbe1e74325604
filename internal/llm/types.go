// Package llm talks to an OpenAI-compatible model provider. It builds the
// sculpture prompts and wraps chat, vision and image-generation calls.
package llm

import (
	"errors"

	"github.com/sashabaranov/go-openai"
)

// Default configuration constants
const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultChatModel    = openai.GPT4o
	DefaultVisionModel  = openai.GPT4o
	DefaultImageModel   = openai.CreateImageModelDallE3
	DefaultImageSize    = openai.CreateImageSize1024x1024
	DefaultImageQuality = openai.CreateImageQualityHD
	DefaultTimeout      = 120 // seconds
)

// Sentinel errors for model client operations
var (
	// ErrUnauthorized is returned when the provider rejects the credential
	ErrUnauthorized = errors.New("model provider rejected the API key")
	// ErrQuotaExceeded is returned when the provider rate-limits or the quota is spent
	ErrQuotaExceeded = errors.New("model provider quota exceeded")
	// ErrRequestFailed is returned for any other API error response
	ErrRequestFailed = errors.New("model request failed")
	// ErrConnectionFailed is returned when the provider cannot be reached
	ErrConnectionFailed = errors.New("model provider unreachable")
	// ErrTimeout is returned when a request exceeds its deadline
	ErrTimeout = errors.New("model request timed out")
	// ErrEmptyResponse is returned when the provider answers without content
	ErrEmptyResponse = errors.New("model returned no content")
)

// Config holds the settings for a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	ChatModel    string
	VisionModel  string
	ImageModel   string
	ImageSize    string
	ImageQuality string
}

// withDefaults fills empty fields with package defaults.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.VisionModel == "" {
		c.VisionModel = DefaultVisionModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.ImageSize == "" {
		c.ImageSize = DefaultImageSize
	}
	if c.ImageQuality == "" {
		c.ImageQuality = DefaultImageQuality
	}
	return c
}
