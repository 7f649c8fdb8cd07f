package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

func TestServer_RegisterHTTPHandler(t *testing.T) {
	s := NewServer(freePort(t), freePort(t), zaptest.NewLogger(t))
	s.RegisterHTTPHandler(http.NotFoundHandler())

	if s.httpServer.Handler == nil {
		t.Error("expected httpServer.Handler to be set")
	}
	if s.httpServer.Addr != s.httpEndpoint {
		t.Errorf("expected httpServer.Addr %q, got %q", s.httpEndpoint, s.httpServer.Addr)
	}
}

func TestServer_SetShutdownTimeout(t *testing.T) {
	s := NewServer(freePort(t), freePort(t), zaptest.NewLogger(t))
	assert.Equal(t, defaultShutdownTimeout, s.shutdownTimeout)

	s.SetShutdownTimeout(0)
	assert.Equal(t, defaultShutdownTimeout, s.shutdownTimeout, "non-positive values are ignored")

	s.SetShutdownTimeout(time.Second)
	assert.Equal(t, time.Second, s.shutdownTimeout)
}

func TestServer_StartStop(t *testing.T) {
	logger := zaptest.NewLogger(t)
	grpcPort, httpPort := freePort(t), freePort(t)
	s := NewServer(grpcPort, httpPort, logger, grpc.Creds(insecure.NewCredentials()))

	ctrl := &mockEmployeeController{}
	s.RegisterHTTPHandler(NewEmployeeHandler(ctrl, logger, Options{}).Routes())

	// Start the server in a separate goroutine.
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	// Give the server a moment to start.
	time.Sleep(200 * time.Millisecond)

	conn, err := grpc.NewClient(
		fmt.Sprintf("127.0.0.1:%d", grpcPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	conn.Close()

	httpResp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", httpPort))
	require.NoError(t, err)
	httpResp.Body.Close()
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)

	// Stop the server.
	s.Stop()

	// Wait for Start() to return.
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Server Start returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for server to stop")
	}

	// Verify that the gRPC server has stopped by attempting to listen on the same endpoint.
	lis, err := net.Listen("tcp", s.grpcEndpoint)
	if err != nil {
		t.Errorf("expected to be able to listen on %q after shutdown, but got error: %v", s.grpcEndpoint, err)
	} else {
		lis.Close()
	}
}
