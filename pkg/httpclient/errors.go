package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/AlexMobiCraft/freesport-storefront/pkg/errors"
)

// apiErrorBody mirrors the marketplace API's error envelope,
// {"error":{"code":..., "message":..., "fields":...}}.
type apiErrorBody struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx response from the
// marketplace API and translates it into an AppError that preserves the
// upstream code, message, and field-level detail. Unstructured bodies fall
// back to a generic error carrying the status code.
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("api returned status %d (failed to read body: %w)", resp.StatusCode, err)
	}

	var body apiErrorBody
	if json.Unmarshal(bodyBytes, &body) == nil && body.Error != nil {
		return mapAPIError(resp.StatusCode, body.Error.Code, body.Error.Message, body.Error.Fields)
	}

	return &apperrors.AppError{
		Code:    "UPSTREAM_ERROR",
		Message: fmt.Sprintf("api returned status %d: %s", resp.StatusCode, string(bodyBytes)),
		Status:  resp.StatusCode,
	}
}

// mapAPIError attaches the sentinel matching the upstream status so callers
// can branch with errors.Is without inspecting status codes.
func mapAPIError(status int, code, message string, fields map[string]string) error {
	appErr := &apperrors.AppError{
		Code:    code,
		Message: message,
		Fields:  fields,
		Status:  status,
	}

	switch status {
	case http.StatusBadRequest:
		appErr.Err = apperrors.ErrInvalidInput
	case http.StatusUnauthorized:
		appErr.Err = apperrors.ErrUnauthorized
	case http.StatusForbidden:
		appErr.Err = apperrors.ErrForbidden
	case http.StatusNotFound:
		appErr.Err = apperrors.ErrNotFound
	case http.StatusConflict:
		appErr.Err = apperrors.ErrConflict
	case http.StatusServiceUnavailable:
		appErr.Err = apperrors.ErrServiceUnavail
	default:
		if status >= 500 {
			appErr.Err = apperrors.ErrInternal
		}
	}

	return appErr
}

// IsClientError reports whether the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
