package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
)

type ErrorKind string

const (
	ErrorConfig    ErrorKind = "config"
	ErrorAuth      ErrorKind = "auth"
	ErrorRateLimit ErrorKind = "rate_limit"
	ErrorBalance   ErrorKind = "balance"
	ErrorNetwork   ErrorKind = "network"
	ErrorProvider  ErrorKind = "provider"
	ErrorUnknown   ErrorKind = "unknown"
)

// Error is the only error shape the gateway hands to callers. Message is short
// and user facing, Details carries remediation text.
type Error struct {
	Kind     ErrorKind
	Message  string
	Details  string
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is returned by variants that talk HTTP themselves.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func newStatusError(code int, body []byte) *StatusError {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error.Message != "":
			msg = parsed.Error.Message
		case parsed.Message != "":
			msg = parsed.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &StatusError{StatusCode: code, Message: msg}
}

func configError(cfg ProviderConfig, msg, details string) *Error {
	return &Error{Kind: ErrorConfig, Message: msg, Details: details, Provider: cfg.Provider, Status: http.StatusInternalServerError}
}

// Classify maps whatever a provider variant returned onto the error taxonomy.
func Classify(cfg ProviderConfig, err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	status, msg := statusAndMessage(err)
	low := strings.ToLower(msg)
	name := cfg.displayName()
	out := &Error{Provider: cfg.Provider, Status: status, Err: err}

	switch {
	case status == http.StatusPaymentRequired || strings.Contains(low, "insufficient balance") || strings.Contains(low, "insufficient_balance"):
		out.Kind = ErrorBalance
		out.Message = "insufficient account balance"
		out.Details = fmt.Sprintf("Your %s account balance is insufficient to use the AI service.\n\nTo fix:\n1. Top up at %s\n2. Or switch AI_PROVIDER to another provider\n\nProvider response: %s", name, cfg.topUp(), msg)
		out.Status = orDefault(status, http.StatusPaymentRequired)
	case status == http.StatusUnauthorized || strings.Contains(low, "unauthorized") || strings.Contains(low, "invalid api key") || strings.Contains(low, "invalid_api_key"):
		out.Kind = ErrorAuth
		out.Message = "invalid API key"
		out.Details = fmt.Sprintf("The API key is invalid or expired. Check %s in your .env file.", cfg.KeyEnv)
		out.Status = orDefault(status, http.StatusUnauthorized)
	case status == http.StatusTooManyRequests || strings.Contains(low, "rate limit") || strings.Contains(low, "rate_limit") || strings.Contains(low, "too many requests"):
		out.Kind = ErrorRateLimit
		out.Message = "too many requests"
		out.Details = "Request rate is too high, please retry later. " + msg
		out.Status = orDefault(status, http.StatusTooManyRequests)
	case status != 0:
		out.Kind = ErrorProvider
		out.Message = fmt.Sprintf("API error (%d)", status)
		out.Details = fmt.Sprintf("AI provider call failed (%s)\nstatus: %d\nerror: %s", cfg.Provider, status, msg)
	case isNetworkError(err):
		out.Kind = ErrorNetwork
		out.Message = "network connection failed"
		out.Details = fmt.Sprintf("Cannot reach %s\n\nCheck:\n1. the network connection\n2. the API address is correct\n3. whether a proxy is required\n4. whether a firewall blocks the connection", cfg.BaseURL)
		out.Status = http.StatusServiceUnavailable
	default:
		out.Kind = ErrorUnknown
		out.Message = "unknown error"
		out.Details = "AI provider call failed: " + msg
		out.Status = http.StatusInternalServerError
	}
	return out
}

func statusAndMessage(err error) (int, string) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return apiErr.StatusCode, msg
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, se.Message
	}
	return 0, err.Error()
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	low := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "no such host", "timeout", "timed out", "connection reset", "network is unreachable"} {
		if strings.Contains(low, s) {
			return true
		}
	}
	return false
}

func orDefault(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
