package gdrive

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// Drive API errors.
var (
	// ErrNotFound indicates the requested file or folder does not exist.
	ErrNotFound = errors.New("gdrive: not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("gdrive: rate limit exceeded")

	// ErrForbidden indicates insufficient permissions for the file.
	ErrForbidden = errors.New("gdrive: forbidden")
)

// isNotFound returns true if the error indicates a missing resource.
func isNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return statusCode(err) == http.StatusNotFound
}

// isRateLimited returns true for 429 and for 403 rate-limit reasons.
func isRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

// retryAfter reads the Retry-After header (in seconds) of a googleapi error.
func retryAfter(err error) time.Duration {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	secs, convErr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if convErr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// wrapError maps a Drive API error onto package and domain errors.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case isRateLimited(err):
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	case statusCode(err) == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, domain.ErrAuthExpired)
	case statusCode(err) == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	case isNotFound(err):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
