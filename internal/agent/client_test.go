package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lucasnoah/dockhand/internal/pipeline"
)

func TestHTTPClient_Complete(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "FROM alpine\n"}},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-model", "sk-key", 0.3, time.Minute)
	out, err := c.Complete(context.Background(), "containerize this")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "FROM alpine\n" {
		t.Errorf("response = %q", out)
	}
	if gotAuth != "Bearer sk-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "test-model" || gotReq.Temperature != 0.3 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "containerize this" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestHTTPClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-model", "", 0, time.Minute)
	_, err := c.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should name the status: %v", err)
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server detects the client disconnect and
		// cancels the request context; otherwise this blocks past Close.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-model", "", 0, 30*time.Millisecond)
	_, err := c.Complete(context.Background(), "prompt")
	var timeoutErr *pipeline.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %T (%v), want *pipeline.TimeoutError", err, err)
	}
	if timeoutErr.Op != "model call" {
		t.Errorf("op = %q", timeoutErr.Op)
	}
}

func TestHTTPClient_EmptyChoicesTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-model", "", 0, time.Minute)
	out, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "" {
		t.Errorf("response = %q, want empty", out)
	}
}
