// Package notify delivers run summaries to a chat notification gateway.
// Delivery is best-effort: a failed notification is logged, never fatal.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/pkg/tools/logger"
)

const requestTimeout = 10 * time.Second

// Notifier delivers one human-readable message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// HTTPNotifier posts messages to the configured gateway as JSON.
type HTTPNotifier struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// New creates an HTTP notifier from config.
func New(cfg *config.Config) *HTTPNotifier {
	return &HTTPNotifier{
		url:    cfg.Notify.URL,
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger.WithModule("NOTIFY").Logger,
	}
}

// Send posts {"message": ...} to the gateway.
func (n *HTTPNotifier) Send(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode)
	}

	n.logger.Info("Notification delivered", "bytes", len(payload))
	return nil
}
