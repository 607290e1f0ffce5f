package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/pkg/config"
	xhttp "CreditScore/pkg/http"
)

func TestAppRunStopsBackgroundTasks(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeout = time.Second
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))

	var started, stopped atomic.Bool
	task := func(ctx context.Context) {
		started.Store(true)
		<-ctx.Done()
		stopped.Store(true)
	}
	app := New(cfg, nil, srv, nil, nil, task)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	assert.Eventually(t, started.Load, time.Second, 5*time.Millisecond)
	assert.False(t, stopped.Load())

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	// Run waits for background tasks before returning
	assert.True(t, stopped.Load())
}
