// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// mockHTTPServer simulates http.Server lifecycle: ListenAndServe blocks until
// Shutdown is called or an error is injected.
type mockHTTPServer struct {
	serveErr       chan error
	shutdownErr    error
	shutdownCalled chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		serveErr:       make(chan error, 1),
		shutdownCalled: make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	return <-m.serveErr
}

func (m *mockHTTPServer) Shutdown(_ context.Context) error {
	close(m.shutdownCalled)
	m.serveErr <- http.ErrServerClosed
	return m.shutdownErr
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	select {
	case <-server.shutdownCalled:
	default:
		t.Error("Shutdown was not called")
	}
}

func TestHTTPServerServiceFailure(t *testing.T) {
	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	serveFailure := errors.New("listen tcp: address already in use")
	server.serveErr <- serveFailure

	err := svc.Serve(context.Background())
	if !errors.Is(err, serveFailure) {
		t.Errorf("Serve returned %v, want wrapped %v", err, serveFailure)
	}
}

func TestHTTPServerServiceServerClosedIsClean(t *testing.T) {
	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	server.serveErr <- http.ErrServerClosed

	if err := svc.Serve(context.Background()); err != nil {
		t.Errorf("Serve returned %v, want nil for ErrServerClosed", err)
	}
}

func TestHTTPServerServiceShutdownError(t *testing.T) {
	server := newMockHTTPServer()
	server.shutdownErr = errors.New("shutdown deadline exceeded")
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Serve(ctx)
	if err == nil || !errors.Is(err, server.shutdownErr) {
		t.Errorf("Serve returned %v, want wrapped shutdown error", err)
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), 0)
	if got := svc.String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}
}
