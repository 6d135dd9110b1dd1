package storage

import (
	"strings"
	"time"

	"github.com/rosterleague/roster-clash/internal/logging"
)

const (
	maxWriteAttempts = 4
	baseBackoff      = 25 * time.Millisecond
)

// withRetry runs a persistence write, retrying transient sqlite lock
// conflicts with exponential backoff. Anything else fails immediately;
// exhausting the attempts surfaces the last error to the caller.
func withRetry(op string, fn func() error) error {
	var err error
	backoff := baseBackoff
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransientLock(err) {
			return err
		}
		if attempt < maxWriteAttempts {
			logging.Error("transient lock conflict, retrying", err, logging.Fields{"op": op, "attempt": attempt})
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return err
}

func isTransientLock(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
