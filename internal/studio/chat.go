// Package studio orchestrates one chat turn: it builds the request from the
// session's sculpture state, calls the model, runs the state-update step
// and records the turn in the conversation log.
package studio

import (
	"context"
	"errors"
	"time"

	"github.com/hurricanerix/icecarve/internal/conversation"
	"github.com/hurricanerix/icecarve/internal/llm"
	"github.com/hurricanerix/icecarve/internal/logging"
	"github.com/hurricanerix/icecarve/internal/metrics"
	"github.com/hurricanerix/icecarve/internal/sculpture"
)

// ChatClient is the model surface the chat orchestrator needs.
type ChatClient interface {
	Chat(ctx context.Context, systemPrompt, userInput string) (string, error)
	AnalyzeImage(ctx context.Context, dataURL string) (string, error)
}

// ChatOrchestrator runs image-analysis and text turns against a session.
type ChatOrchestrator struct {
	client  ChatClient
	updater sculpture.Updater
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewChatOrchestrator creates a chat orchestrator.
// A nil updater keeps the sculpture state unchanged; nil metrics and
// logger are allowed.
func NewChatOrchestrator(client ChatClient, updater sculpture.Updater, m *metrics.Metrics, logger *logging.Logger) *ChatOrchestrator {
	if updater == nil {
		updater = sculpture.NopUpdater{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &ChatOrchestrator{
		client:  client,
		updater: updater,
		metrics: m,
		logger:  logger,
	}
}

// Analyze sends an uploaded image to the vision model and logs the turn
// under conversation.UploadMarker. The sculpture state is not touched.
func (o *ChatOrchestrator) Analyze(ctx context.Context, session *conversation.Session, dataURL string) (string, error) {
	start := time.Now()
	reply, err := o.client.AnalyzeImage(ctx, dataURL)
	o.metrics.ObserveRemoteCall(metrics.OpAnalyzeImage, start, err)
	if err != nil {
		return "", err
	}

	session.Append(conversation.Entry{User: conversation.UploadMarker, AI: reply})
	return reply, nil
}

// Converse runs one text turn. The system prompt is rebuilt from the
// session's current state; input is forwarded unchanged.
func (o *ChatOrchestrator) Converse(ctx context.Context, session *conversation.Session, input string) (string, error) {
	systemPrompt := llm.BuildSystemPrompt(session.State()) + o.updater.Instructions()

	start := time.Now()
	raw, err := o.client.Chat(ctx, systemPrompt, input)
	o.metrics.ObserveRemoteCall(metrics.OpChat, start, err)
	if err != nil {
		return "", err
	}

	reply := raw
	err = session.UpdateState(func(state *sculpture.State) error {
		var applyErr error
		reply, applyErr = o.updater.Apply(state, sculpture.Turn{UserInput: input, Reply: raw})
		return applyErr
	})
	if err != nil {
		if errors.Is(err, sculpture.ErrNoMetadata) {
			o.logger.Debug("Reply carried no sculpture metadata")
		} else {
			o.logger.Warn("Sculpture state update skipped: %v", err)
		}
	}

	session.Append(conversation.Entry{User: input, AI: reply})
	return reply, nil
}
