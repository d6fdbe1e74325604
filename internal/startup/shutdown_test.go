package startup

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurricanerix/icecarve/internal/logging"
)

func TestRun_ContextCancelled(t *testing.T) {
	cfg := testConfig(t)
	components, err := InitializeAll(cfg, logging.Nop())
	require.NoError(t, err)
	defer Cleanup(components, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, components.WebServer, logging.Nop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	components, err := InitializeAll(cfg, logging.Nop())
	require.NoError(t, err)
	defer Cleanup(components, logging.Nop())

	err = Run(context.Background(), components.WebServer, logging.Nop())
	assert.Error(t, err)
}
