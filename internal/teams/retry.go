package teams

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultAttempts is the number of requests made before giving up on the team API
const DefaultAttempts = 5

// RetryPolicy decides how many times the team API is queried and how long to
// wait in between. The zero Delay means attempts run back to back.
type RetryPolicy struct {
	Attempts    int           `yaml:"attempts" env:"TEAM_API_RETRY_ATTEMPTS" env-default:"5"`
	Delay       time.Duration `yaml:"delay" env:"TEAM_API_RETRY_DELAY" env-default:"0s"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"TEAM_API_RETRY_MAX_DELAY" env-default:"0s"`
	Exponential bool          `yaml:"exponential" env:"TEAM_API_RETRY_EXPONENTIAL" env-default:"false"`
}

// DefaultRetryPolicy makes five immediate attempts
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts}
}

// BackOff builds the backoff schedule for one lookup. It is bounded by the
// attempt count and stops early when ctx is done.
func (p RetryPolicy) BackOff(ctx context.Context) backoff.BackOff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var b backoff.BackOff
	switch {
	case p.Delay <= 0:
		b = &backoff.ZeroBackOff{}
	case p.Exponential:
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = p.Delay
		if p.MaxDelay > 0 {
			exp.MaxInterval = p.MaxDelay
		}
		// the attempt budget is the only stop condition
		exp.MaxElapsedTime = 0
		b = exp
	default:
		b = backoff.NewConstantBackOff(p.Delay)
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}
