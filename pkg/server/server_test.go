package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/pkg/config"
	"github.com/quarryhq/quarry/pkg/lifecycle"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.GetDefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Stats.Enabled = true
	cfg.BootstrapCommand = "version"
	return cfg
}

func TestRunBootsAndShutsDown(t *testing.T) {
	q := New(testConfig(t), "test")

	done := make(chan error, 1)
	go func() { done <- q.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return q.Controller().Alive() && q.Addr() != ""
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", q.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	q.Controller().Shutdown()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
	assert.Equal(t, lifecycle.StateStopped, q.Controller().State())
}

func TestRunFailsOnOccupiedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	q := New(cfg, "test")
	err = q.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind failed")
	assert.Equal(t, lifecycle.StateStopped, q.Controller().State())
}

func TestConsoleStopCommandStopsTheProcess(t *testing.T) {
	q := New(testConfig(t), "test")

	done := make(chan error, 1)
	go func() { done <- q.Run(context.Background()) }()

	require.Eventually(t, func() bool { return q.Controller().Alive() }, 5*time.Second, 10*time.Millisecond)

	q.Controller().Schedule(func() error {
		q.Controller().Shutdown()
		return nil
	})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after scheduled shutdown")
	}
}
