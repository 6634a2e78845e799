// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azgov

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the retries of a throttled mutation.
type RetryPolicy struct {
	MaxRetries   int           // MaxRetries is the number of retries after the first call, negative means none
	InitialDelay time.Duration // InitialDelay is the first backoff interval, zero uses the backoff default
	MaxDelay     time.Duration // MaxDelay caps the backoff interval, zero uses the backoff default
}

// RetryThrottled calls op until it returns nil, an error that is not ErrThrottled, or the
// retries of p are used up. The last error is returned.
//
// The Azure SDK clients already retry 429 responses inside each call before the directory
// reports ErrThrottled, so these retries come on top of the SDK's own: a single mutation may
// reach the control plane (p.MaxRetries+1) times the SDK's attempts.
//
// op receives a context that is not cancelled with ctx, so a mutation in flight always
// completes. Cancelling ctx stops further retries.
func RetryThrottled(ctx context.Context, p RetryPolicy, op func(context.Context) error) error {
	callCtx := context.WithoutCancel(ctx)

	b := backoff.NewExponentialBackOff()
	if p.InitialDelay > 0 {
		b.InitialInterval = p.InitialDelay
	}

	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}

	b.MaxElapsedTime = 0

	retries := max(p.MaxRetries, 0)

	return backoff.Retry(func() error {
		err := op(callCtx)
		if err == nil || errors.Is(err, ErrThrottled) {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx))
}
