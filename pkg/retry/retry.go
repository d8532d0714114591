package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ecosort/recyclesort/pkg/types/errs"
)

const (
	_defaultMaxRetries      = 3
	_defaultInitialInterval = 100 * time.Millisecond
)

type Policy struct {
	maxRetries      uint64
	initialInterval time.Duration
}

func New(opts ...Option) *Policy {
	p := &Policy{
		maxRetries:      _defaultMaxRetries,
		initialInterval: _defaultInitialInterval,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Do runs op with bounded exponential backoff. Terminal errors
// (not-found, validation) are surfaced immediately, never retried.
func (p *Policy) Do(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err != nil && errs.Terminal(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.initialInterval

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx))
}
