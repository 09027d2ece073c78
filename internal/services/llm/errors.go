package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type httpStatusError struct {
	StatusCode int
	Body       string
	Code       string
	RetryAfter time.Duration
}

func newHTTPStatusError(status int, body []byte, retryAfter time.Duration) *httpStatusError {
	e := &httpStatusError{StatusCode: status, Body: strings.TrimSpace(string(body)), RetryAfter: retryAfter}
	var payload struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != nil {
		e.Code = firstNonEmpty(payload.Error.Code, payload.Error.Type)
	}
	return e
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, summarizePayloadSnippet(e.Body))
}

// quotaExceeded reports a 429 that will not clear by waiting.
func (e *httpStatusError) quotaExceeded() bool {
	return e.StatusCode == http.StatusTooManyRequests &&
		(e.Code == "insufficient_quota" || strings.Contains(e.Body, "insufficient_quota"))
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// IsQuotaExceeded reports whether err is an exhausted-quota response.
func IsQuotaExceeded(err error) bool {
	var statusErr *httpStatusError
	return errors.As(err, &statusErr) && statusErr.quotaExceeded()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
