package retry

import "time"

type Option func(*Policy)

func MaxRetries(retries uint64) Option {
	return func(p *Policy) {
		p.maxRetries = retries
	}
}

func InitialInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.initialInterval = interval
	}
}
