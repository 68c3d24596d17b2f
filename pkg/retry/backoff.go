package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func (p Policy) exponential() *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = p.Multiplier
	// Zero disables the elapsed-time cap, leaving MaxAttempts as the only bound.
	exp.MaxElapsedTime = p.MaxElapsedTime
	exp.RandomizationFactor = 0
	return exp
}

// Delay is the wait before retry number attempt (0-based), without jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(p.InitialInterval) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxInterval) {
		return p.MaxInterval
	}
	return time.Duration(d)
}
