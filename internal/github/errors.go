package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v81/github"
)

// APIError is a response outside 200-299. It carries the status code, the
// request line with a redacted URL and the platform's message. Request bodies
// and credentials are never included.
type APIError struct {
	Op         string
	StatusCode int
	Method     string
	URL        string
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: status code %d", e.Op, e.StatusCode)
	if e.Method != "" {
		fmt.Fprintf(&b, " (%s %s)", e.Method, e.URL)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Details, "; "))
	}
	return b.String()
}

// RequestError is a failure to reach the platform at all (DNS, refused, reset).
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return newAPIError(op, rateErr.Response, rateErr.Message)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return newAPIError(op, abuseErr.Response, abuseErr.Message)
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		apiErr := newAPIError(op, respErr.Response, respErr.Message)
		for _, e := range respErr.Errors {
			switch {
			case e.Message != "" && e.Field != "":
				apiErr.Details = append(apiErr.Details, e.Field+": "+e.Message)
			case e.Message != "":
				apiErr.Details = append(apiErr.Details, e.Message)
			default:
				apiErr.Details = append(apiErr.Details, e.Error())
			}
		}
		return apiErr
	}

	return &RequestError{Op: op, Err: err}
}

func newAPIError(op string, resp *http.Response, message string) *APIError {
	apiErr := &APIError{Op: op, Message: message}
	if resp != nil {
		apiErr.StatusCode = resp.StatusCode
		if resp.Request != nil {
			apiErr.Method = resp.Request.Method
			apiErr.URL = resp.Request.URL.Redacted()
		}
	}
	return apiErr
}
