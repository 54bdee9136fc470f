package bounty

import (
	"fmt"

	"github.com/tendermint/tendermint/libs/common"
)

// Event is a notification emitted by a handler when a state change
// succeeds. Events are only observable once the transaction that produced
// them is persisted.
type Event struct {
	// Kind is the event name, for example "Deposited".
	Kind string
	// Tags carry the event attributes as ordered key value pairs.
	Tags []common.KVPair
}

// NewEvent returns an event of given kind. Attributes must be provided as
// alternating key and value pairs, same as for the logger.
func NewEvent(kind string, keyvals ...interface{}) Event {
	if len(keyvals)%2 != 0 {
		panic("odd number of event attributes")
	}
	tags := make([]common.KVPair, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		tags = append(tags, common.KVPair{
			Key:   []byte(fmt.Sprint(keyvals[i])),
			Value: tagValue(keyvals[i+1]),
		})
	}
	return Event{Kind: kind, Tags: tags}
}

func tagValue(v interface{}) []byte {
	switch v := v.(type) {
	case []byte:
		return v
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(fmt.Sprint(v))
	}
}

// Attr returns the value of the first tag with given key, or nil.
func (e Event) Attr(key string) []byte {
	for _, t := range e.Tags {
		if string(t.Key) == key {
			return t.Value
		}
	}
	return nil
}

func (e Event) String() string {
	s := e.Kind
	for _, t := range e.Tags {
		s += fmt.Sprintf(" %s=%s", t.Key, t.Value)
	}
	return s
}
