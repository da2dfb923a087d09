package ollama

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/rfields/scanwatch/internal/common"
	"github.com/rfields/scanwatch/internal/resilience"
)

// ClassifyError maps a classify-call error into a retry decision for the
// resilience executor: only common.ErrModelUnavailable is worth retrying.
func ClassifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{
		Retryable:     errors.Is(err, common.ErrModelUnavailable),
		RecordFailure: errors.Is(err, common.ErrModelUnavailable),
	}
}

// wrapModelError tags transport-level failures as retryable
// ModelUnavailable. Non-retryable HTTP statuses (bad model name, invalid
// request) pass through untagged and end the file's attempt.
func wrapModelError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.Wrap(common.ErrModelUnavailable, operation+" timeout", err)
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return common.Wrap(common.ErrModelUnavailable, operation, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return common.Wrap(common.ErrModelUnavailable, operation, err)
	}

	// Connection refused and friends arrive as *url.Error without a
	// net.Error underneath on some platforms; treat any remaining
	// transport failure as the endpoint being unavailable.
	return common.Wrap(common.ErrModelUnavailable, operation, err)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
