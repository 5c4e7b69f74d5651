package sync

import (
	"context"
	"errors"
	"time"

	"github.com/jjpenad/cfma-acgi-integration/pkg/config"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

// withRetry runs fn, retrying with exponential backoff on destination
// statuses that signal a transient condition (429 and 5xx). Everything else
// fails immediately: a 400 stays a 400 no matter how often it is sent.
func withRetry(ctx context.Context, retryConfig config.RetryConfig, log *logger.Logger, operation string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(retryConfig, attempt)
			log.Warnf("Retrying %s after %v (attempt %d/%d): %v",
				operation, delay, attempt, retryConfig.MaxRetries, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = fn()
		if err == nil {
			return nil
		}

		var upstream *syncerrors.UpstreamError
		if !errors.As(err, &upstream) || !upstream.Retryable() {
			return err
		}
	}
	return err
}

func backoffDelay(retryConfig config.RetryConfig, attempt int) time.Duration {
	delay := retryConfig.BaseDelayMs
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= retryConfig.MaxDelayMs {
			delay = retryConfig.MaxDelayMs
			break
		}
	}
	if delay > retryConfig.MaxDelayMs {
		delay = retryConfig.MaxDelayMs
	}
	return time.Duration(delay) * time.Millisecond
}
