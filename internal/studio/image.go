package studio

import (
	"context"
	"time"

	"github.com/hurricanerix/icecarve/internal/metrics"
)

// ImageClient is the model surface the image orchestrator needs.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ImageOrchestrator renders the sculpture through the image model.
type ImageOrchestrator struct {
	client  ImageClient
	metrics *metrics.Metrics
}

// NewImageOrchestrator creates an image orchestrator. m may be nil.
func NewImageOrchestrator(client ImageClient, m *metrics.Metrics) *ImageOrchestrator {
	return &ImageOrchestrator{client: client, metrics: m}
}

// Generate requests one image for prompt and returns its remote URL.
// The image is neither downloaded nor cached.
func (o *ImageOrchestrator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	url, err := o.client.GenerateImage(ctx, prompt)
	o.metrics.ObserveRemoteCall(metrics.OpGenerateImage, start, err)
	if err != nil {
		return "", err
	}
	return url, nil
}
