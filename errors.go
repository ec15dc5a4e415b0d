package codereview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// AnalysisRequestError is returned when an analysis request fails. Status is
// zero when no HTTP response was received.
type AnalysisRequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *AnalysisRequestError) Error() string {
	return requestErrorString("analysis request failed", e.Status, e.Message, e.Err)
}

func (e *AnalysisRequestError) Unwrap() error { return e.Err }

// HTTPStatus returns the response status code, or zero.
func (e *AnalysisRequestError) HTTPStatus() int { return e.Status }

// HistoryFetchError is returned when the history list cannot be fetched.
type HistoryFetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *HistoryFetchError) Error() string {
	return requestErrorString("history fetch failed", e.Status, e.Message, e.Err)
}

func (e *HistoryFetchError) Unwrap() error { return e.Err }

// HTTPStatus returns the response status code, or zero.
func (e *HistoryFetchError) HTTPStatus() int { return e.Status }

// DeleteError is returned when a record could not be removed.
type DeleteError struct {
	ID      string
	Message string
	Err     error
}

func (e *DeleteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("delete %s failed: %s", e.ID, msg)
}

func (e *DeleteError) Unwrap() error { return e.Err }

func requestErrorString(prefix string, status int, message string, err error) string {
	switch {
	case status != 0 && message != "":
		return fmt.Sprintf("%s: %d: %s", prefix, status, message)
	case status != 0:
		return fmt.Sprintf("%s: %d %s", prefix, status, http.StatusText(status))
	case err != nil:
		return fmt.Sprintf("%s: %v", prefix, err)
	default:
		return prefix + ": " + message
	}
}

// Sentinel errors.
var (
	ErrEmptyCode          = errors.New("code cannot be empty")
	ErrSubmissionInFlight = errors.New("an analysis is already in progress")
	ErrDeleteInFlight     = errors.New("delete already in progress for this record")
	ErrNoSession          = errors.New("not signed in")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidModelOutput = errors.New("model returned invalid JSON")
	ErrEmptyResponse      = errors.New("analysis server returned no result")
)

// ErrorKind is the user-facing category of a failure.
type ErrorKind int

// Error kinds.
const (
	GenericFailure ErrorKind = iota
	RateLimited
	QuotaExceeded
	ConnectionError
)

func (k ErrorKind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case QuotaExceeded:
		return "quota_exceeded"
	case ConnectionError:
		return "connection_error"
	default:
		return "generic_failure"
	}
}

// Classify maps an error to its ErrorKind. Timeouts are generic failures,
// never connection errors.
func Classify(err error) ErrorKind {
	if err == nil {
		return GenericFailure
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return GenericFailure
	}

	status := 0
	var sc HTTPStatuser
	if errors.As(err, &sc) {
		status = sc.HTTPStatus()
	}
	switch status {
	case http.StatusTooManyRequests:
		return RateLimited
	case http.StatusPaymentRequired:
		return QuotaExceeded
	}

	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return ConnectionError
	}

	// Message text is only consulted for failures that never got a response.
	if status != 0 {
		return GenericFailure
	}
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "rate limit"):
		return RateLimited
	case strings.Contains(text, "payment"), strings.Contains(text, "quota"):
		return QuotaExceeded
	case strings.Contains(text, "failed to fetch"), strings.Contains(text, "networkerror"),
		strings.Contains(text, "connection refused"):
		return ConnectionError
	}
	return GenericFailure
}

// Notice is a transient user-facing notification.
type Notice struct {
	Title       string
	Description string
	Error       bool
}

// NoticeFor converts an analysis failure into a notification.
func NoticeFor(err error) Notice {
	switch Classify(err) {
	case RateLimited:
		return Notice{Title: "Rate Limited", Description: "Too many requests. Please wait a moment and try again.", Error: true}
	case QuotaExceeded:
		return Notice{Title: "Usage Limit Reached", Description: "Please add credits to continue using the AI analysis.", Error: true}
	case ConnectionError:
		return Notice{Title: "Connection Error", Description: "Unable to connect to the analysis server. Please check if the backend is running.", Error: true}
	}
	desc := "Something went wrong. Please try again."
	var are *AnalysisRequestError
	if errors.As(err, &are) && are.Message != "" {
		desc = are.Message
	}
	return Notice{Title: "Analysis Failed", Description: desc, Error: true}
}

// CompletionNotice announces a finished analysis with the backend's count.
func CompletionNotice(issuesCount int) Notice {
	return Notice{
		Title:       "Analysis Complete",
		Description: fmt.Sprintf("Found %d issues in your code.", issuesCount),
	}
}

// HistoryLoadNotice is shown when the history list cannot be loaded.
func HistoryLoadNotice() Notice {
	return Notice{Title: "Error", Description: "Failed to load history. Please try again.", Error: true}
}

// DeleteNotice reports the outcome of a record delete.
func DeleteNotice(err error) Notice {
	if err != nil {
		return Notice{Title: "Error", Description: "Failed to delete the analysis.", Error: true}
	}
	return Notice{Title: "Deleted", Description: "Analysis record has been removed."}
}
