package utils

import (
	"time"

	"github.com/iov-one/bounty"
)

// Logging is a decorator to log messages as they pass through
type Logging struct{}

var _ bounty.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> error, success -> debug
func (r Logging) Check(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx, next bounty.Checker) (*bounty.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, start, bounty.GetPath(tx), resLog, 0, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info
func (r Logging) Deliver(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx, next bounty.Deliverer) (*bounty.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	var (
		resLog string
		events int
	)
	if err == nil {
		resLog = res.Log
		events = len(res.Events)
	}
	logDuration(ctx, start, bounty.GetPath(tx), resLog, events, err, false)
	return res, err
}

// logDuration writes information about the time and result to the logger
func logDuration(ctx bounty.Context, start time.Time, path, msg string, events int, err error, lowPrio bool) {
	delta := time.Now().Sub(start)
	logger := bounty.GetLogger(ctx).With("path", path, "duration", delta/time.Microsecond)

	// Although message can be empty, we still want to emit a log entry
	// because it contains other relevant information beside the message.

	if err != nil {
		logger.Error(msg, "err", err)
		return
	}
	if lowPrio {
		logger.Debug(msg)
	} else {
		logger.Info(msg, "events", events)
	}
}
