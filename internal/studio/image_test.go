package studio

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurricanerix/icecarve/internal/llm"
	"github.com/hurricanerix/icecarve/internal/metrics"
)

func TestImageOrchestrator_Generate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		err     error
		wantErr error
	}{
		{name: "success", url: "https://images.example.com/swan.png"},
		{name: "quota", err: llm.ErrQuotaExceeded, wantErr: llm.ErrQuotaExceeded},
		{name: "timeout", err: llm.ErrTimeout, wantErr: llm.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{imageURL: tt.url, imageErr: tt.err}
			m := metrics.New()
			o := NewImageOrchestrator(client, m)

			url, err := o.Generate(context.Background(), "an ice swan")
			assert.Equal(t, []string{"an ice swan"}, client.imagePrompts)

			errCount, gerr := testutil.GatherAndCount(m.Registry(), "icecarve_remote_call_errors_total")
			require.NoError(t, gerr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, url)
				assert.Equal(t, 1, errCount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, url)
			assert.Equal(t, 0, errCount)
		})
	}
}

func TestImageOrchestrator_NilMetrics(t *testing.T) {
	o := NewImageOrchestrator(&fakeClient{imageURL: "u"}, nil)
	url, err := o.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "u", url)
}
