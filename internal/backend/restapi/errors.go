package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"famcal/internal/service"
)

// APIError is a non-success response. It unwraps to the matching service
// sentinel (if any) and to the underlying *googleapi.Error.
type APIError struct {
	Code   int
	Detail string
	err    *googleapi.Error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Detail, e.Code)
	}
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

func (e *APIError) Unwrap() []error {
	errs := []error{e.err}
	if s := sentinel(e.Code); s != nil {
		errs = append(errs, s)
	}
	return errs
}

func sentinel(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return service.ErrUnauthorized
	case http.StatusForbidden:
		return service.ErrForbidden
	case http.StatusNotFound:
		return service.ErrNotFound
	}
	return nil
}

// wrapError maps transport and API errors onto service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", service.ErrTimeout, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{Code: gerr.Code, Detail: detail(gerr), err: gerr}
	}

	return err
}

// detail extracts a readable message from an error body. The API sends
// {"detail": "..."}; validation failures send a list of objects instead.
func detail(gerr *googleapi.Error) string {
	if gerr.Message != "" {
		return gerr.Message
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal([]byte(gerr.Body), &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var msg string
	if err := json.Unmarshal(body.Detail, &msg); err == nil {
		return msg
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return string(body.Detail)
}
