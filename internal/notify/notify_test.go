package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/laityts/iptest/config"
)

func newTestNotifier(url string) *HTTPNotifier {
	cfg := config.NewDefaultConfig()
	cfg.Notify.URL = url
	return New(cfg)
}

func TestSendPostsJSONMessage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	if err := n.Send(context.Background(), "5 endpoints verified"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got["message"] != "5 endpoints verified" {
		t.Errorf("message = %q, want %q", got["message"], "5 endpoints verified")
	}
}

func TestSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Error("Send() succeeded against a failing gateway, want error")
	}
}

func TestSendUnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	n := newTestNotifier(srv.URL)
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Error("Send() succeeded against a closed gateway, want error")
	}
}
