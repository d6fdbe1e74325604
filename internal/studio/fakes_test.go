package studio

import (
	"context"
	"sync"
)

// fakeClient records calls and returns canned results.
type fakeClient struct {
	mu sync.Mutex

	chatReply     string
	chatErr       error
	analysisReply string
	analysisErr   error
	imageURL      string
	imageErr      error

	systemPrompts []string
	chatInputs    []string
	dataURLs      []string
	imagePrompts  []string
}

func (f *fakeClient) Chat(_ context.Context, systemPrompt, userInput string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	f.chatInputs = append(f.chatInputs, userInput)
	return f.chatReply, f.chatErr
}

func (f *fakeClient) AnalyzeImage(_ context.Context, dataURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataURLs = append(f.dataURLs, dataURL)
	return f.analysisReply, f.analysisErr
}

func (f *fakeClient) GenerateImage(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	return f.imageURL, f.imageErr
}
