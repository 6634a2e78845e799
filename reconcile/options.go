// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultParallelism       = 10 // default number of parallel requests to make to the directory
	defaultMaxRetries        = 4
	defaultRetryInitialDelay = 2 * time.Second
	defaultRetryMaxDelay     = 30 * time.Second
)

// Options configure a reconciliation pass.
// Use DefaultOptions and modify the result rather than building from scratch.
type Options struct {
	Parallelism       int           // Parallelism is the size of the worker pool used against the directory
	DryRun            bool          // DryRun records every action as skipped without calling the directory
	MaxRetries        int           // MaxRetries is the number of retries for throttled mutations
	RetryInitialDelay time.Duration // RetryInitialDelay is the first backoff interval for throttled mutations
	RetryMaxDelay     time.Duration // RetryMaxDelay caps the backoff interval
	RunID             string        // RunID is stamped on every action log entry
	Logger            zerolog.Logger
}

// DefaultOptions returns the default options. The logger discards everything.
func DefaultOptions() *Options {
	return &Options{
		Parallelism:       defaultParallelism,
		MaxRetries:        defaultMaxRetries,
		RetryInitialDelay: defaultRetryInitialDelay,
		RetryMaxDelay:     defaultRetryMaxDelay,
		Logger:            zerolog.Nop(),
	}
}

func (o *Options) parallelism() int {
	if o.Parallelism < 1 {
		return 1
	}

	return o.Parallelism
}

func optionsOrDefault(o *Options) *Options {
	if o == nil {
		return DefaultOptions()
	}

	return o
}
