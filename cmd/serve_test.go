package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeServer blocks in Start until Shutdown is called
type fakeServer struct {
	startErr    error
	stopped     chan struct{}
	shutdownHit bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (s *fakeServer) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	<-s.stopped
	return nil
}

func (s *fakeServer) Shutdown(ctx context.Context) error {
	s.shutdownHit = true
	close(s.stopped)
	return nil
}

func (s *fakeServer) Addr() string {
	return "127.0.0.1:8080"
}

func TestRunServeWithServer_ShutsDownOnCancel(t *testing.T) {
	server := newFakeServer()
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer

	done := make(chan error, 1)
	go func() {
		done <- RunServeWithServer(ctx, server, &out)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	if !server.shutdownHit {
		t.Error("expected Shutdown to be called")
	}
	if !strings.Contains(out.String(), "http://127.0.0.1:8080/") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunServeWithServer_StartFailure(t *testing.T) {
	server := newFakeServer()
	server.startErr = errors.New("address already in use")

	err := RunServeWithServer(context.Background(), server, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "address already in use") {
		t.Fatalf("expected start error, got %v", err)
	}
}
