package ratelimiter

import (
	"math"
	"time"
)

// Result is the verdict of an admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int           // whole tokens left after the check
	RetryAfter time.Duration // set only when denied
	Key        Key           // the key that produced the verdict
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1,
// as sent in the Retry-After header. It is 0 for allowed results.
func (r Result) RetryAfterSeconds() int {
	if r.Allowed {
		return 0
	}
	return max(1, int(math.Ceil(r.RetryAfter.Seconds())))
}
