package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

const (
	defaultRetryInitialInterval = 500 * time.Millisecond
	defaultRetryMaxInterval     = 5 * time.Second
)

// RetryPolicy controls how CompleteWithRetry calls a provider.
type RetryPolicy struct {
	Retries         int           // retries after the first attempt
	Timeout         time.Duration // per-attempt timeout, 0 = none
	InitialInterval time.Duration // first backoff wait, 0 = default
	OnRetry         func(err error, wait time.Duration)
}

// CompleteWithRetry calls provider.Complete with a per-attempt timeout and
// exponential backoff between failed attempts. Cancellation of ctx and
// authentication failures are never retried.
func CompleteWithRetry(ctx context.Context, provider TextProvider, req CompletionRequest, policy RetryPolicy) (string, error) {
	var out string
	operation := func() error {
		callCtx := ctx
		if policy.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
			defer cancel()
		}

		text, err := provider.Complete(callCtx, req)
		if err != nil {
			if ctx.Err() != nil || isAuthError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = text
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitialInterval
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	b.MaxInterval = defaultRetryMaxInterval
	b.MaxElapsedTime = 0

	retries := max(policy.Retries, 0)
	var notify backoff.Notify
	if policy.OnRetry != nil {
		notify = backoff.Notify(policy.OnRetry)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx), notify)
	if err != nil {
		return "", err
	}
	return out, nil
}

// isAuthError reports whether err means the credentials were missing or rejected.
func isAuthError(err error) bool {
	if errors.Is(err, ErrMissingCredentials) {
		return true
	}

	var status int
	var openaiErr *openai.Error
	var geminiErr genai.APIError
	var geminiErrPtr *genai.APIError
	switch {
	case errors.As(err, &openaiErr):
		status = openaiErr.StatusCode
	case errors.As(err, &geminiErr):
		status = geminiErr.Code
	case errors.As(err, &geminiErrPtr):
		status = geminiErrPtr.Code
	}
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
