package app

import (
	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/bounty"
)

// EventSink receives the events of every committed transaction.
//
// Publish is called after the transaction is persisted and its locks are
// released. Calls can be made concurrently and events of transactions that
// do not share records may be published in any order. Use the height to
// order them.
type EventSink interface {
	Publish(height int64, events []bounty.Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(height int64, events []bounty.Event)

func (fn EventSinkFunc) Publish(height int64, events []bounty.Event) {
	fn(height, events)
}

// LogSink writes every event to the logger.
type LogSink struct {
	Logger log.Logger
}

var _ EventSink = LogSink{}

func (s LogSink) Publish(height int64, events []bounty.Event) {
	for _, ev := range events {
		keyvals := make([]interface{}, 0, 2+2*len(ev.Tags))
		keyvals = append(keyvals, "height", height)
		for _, t := range ev.Tags {
			keyvals = append(keyvals, string(t.Key), string(t.Value))
		}
		s.Logger.Info(ev.Kind, keyvals...)
	}
}
