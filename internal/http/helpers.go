package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/report"
	"finapp/internal/services"
)

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields the zero time,
// which the services read as "now" or "unchanged".
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", services.ErrValidation, "date", core.ErrInvalidDate)
	}
	return t, nil
}

// parseWindow reads the window query parameter, wrapping a bad value as a
// validation error.
func parseWindow(r *http.Request) (report.Window, error) {
	w, err := report.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		return "", fmt.Errorf("%w: window: %w", services.ErrValidation, err)
	}
	return w, nil
}

// sanitizeInput removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// writeError maps service errors to status codes. Anything unrecognised is
// logged and reported as 500 without details.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, services.ErrWalletNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ErrorResponse(http.StatusServiceUnavailable, "request cancelled").Write(w)
	default:
		log.FromContext(ctx).WithComponent(log.ComponentHTTP).ErrorContext(ctx, "Request failed", log.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}

// readBody parses the request body, writing a 400 response on failure.
func readBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
			return nil, false
		}
		BadRequestError("malformed request body").Write(w)
		return nil, false
	}
	return p, true
}
