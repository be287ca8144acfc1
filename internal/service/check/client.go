package check

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/pkg/tools/logger"
)

// Latency recorded when the service reports success but its latency field
// cannot be parsed. Keeps such entries at the bottom of the ranking instead
// of failing the trial.
const LatencySentinel uint32 = 99999

// OutcomeKind classifies a single probe trial.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTimeout
	OutcomeTransportError
	OutcomeServiceError
	OutcomeMalformed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeServiceError:
		return "service_error"
	case OutcomeMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Outcome is the normalized result of one probe trial.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	LatencyMs uint32      `json:"latency_ms,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// checkReply mirrors the verification service's JSON shape. The success and
// responseTime fields arrive as booleans, numbers or strings depending on
// service version, so both stay loosely typed until normalized.
type checkReply struct {
	Success      any    `json:"success"`
	ResponseTime any    `json:"responseTime"`
	Message      string `json:"message"`
	Error        string `json:"error"`
}

// Prober issues one verification trial for one endpoint.
type Prober interface {
	Probe(ctx context.Context, ep endpoint.Endpoint) Outcome
}

// Client calls the remote verification service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a probe client from config. The timeout is already
// environment-adapted by the config layer.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.CheckURL,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger.WithModule("PROBE").Logger,
	}
}

// Probe issues one GET to the verification service and normalizes the reply.
// Every failure mode maps to an Outcome; Probe never panics and never
// returns an error to abort the batch.
func (c *Client) Probe(ctx context.Context, ep endpoint.Endpoint) Outcome {
	reqURL := fmt.Sprintf("%s?proxyip=%s", c.baseURL, url.QueryEscape(ep.Key()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Outcome{Kind: OutcomeTransportError, Message: fmt.Sprintf("request build failed: %v", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Debug("Probe timed out", "endpoint", ep.Key())
			return Outcome{Kind: OutcomeTimeout, Message: "request timed out"}
		}
		c.logger.Debug("Probe transport failure", "endpoint", ep.Key(), "error", err)
		return Outcome{Kind: OutcomeTransportError, Message: fmt.Sprintf("connection failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{Kind: OutcomeTransportError, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Kind: OutcomeTransportError, Message: fmt.Sprintf("read failed: %v", err)}
	}

	var reply checkReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return Outcome{Kind: OutcomeMalformed, Message: "non-JSON response"}
	}

	return normalizeReply(reply)
}

// normalizeReply maps the loosely typed service reply to an Outcome.
func normalizeReply(reply checkReply) Outcome {
	success, recognized := parseServiceBool(reply.Success)
	if !recognized {
		return Outcome{Kind: OutcomeMalformed, Message: "unrecognized success field"}
	}

	if !success {
		msg := reply.Message
		if msg == "" {
			msg = reply.Error
		}
		return Outcome{Kind: OutcomeServiceError, Message: msg}
	}

	latency, ok := extractLatencyMs(reply.ResponseTime)
	if !ok {
		// The service said reachable but gave no usable latency.
		latency = LatencySentinel
	}
	return Outcome{Kind: OutcomeSuccess, LatencyMs: latency}
}

// parseServiceBool normalizes the service's boolean-like success field.
// Accepted spellings match the historical service: literal booleans plus the
// strings "true"/"True"/"false"/"False" (case-sensitive). Anything else is
// unrecognized, which callers treat as a malformed response rather than as
// failure.
func parseServiceBool(raw any) (value bool, recognized bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "true", "True":
			return true, true
		case "false", "False":
			return false, true
		}
	}
	return false, false
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// extractLatencyMs pulls a millisecond value out of the service's latency
// field by stripping every non-digit character, tolerating strings like
// "123ms" and float-formatted numbers.
func extractLatencyMs(raw any) (uint32, bool) {
	if raw == nil {
		return 0, false
	}
	text := fmt.Sprint(raw)

	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
