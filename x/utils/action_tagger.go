package utils

import (
	"github.com/tendermint/tendermint/libs/common"

	"github.com/iov-one/bounty"
)

// ActionTagger will inspect the message being executed and add an
// `action = msg.Path()` attribute to every event emitted by it. This gives
// event consumers a standard way to tell which operation produced an
// event, as the same kind can be emitted by different messages (for
// example Released by both release and approve).
type ActionTagger struct{}

var _ bounty.Decorator = ActionTagger{}

// ActionKey is used by ActionTagger as the Key in the Tag it appends
const ActionKey = "action"

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

// Check just passes the request along
func (ActionTagger) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx, next bounty.Checker) (*bounty.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver tags all events of a successful result.
func (ActionTagger) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx, next bounty.Deliverer) (*bounty.DeliverResult, error) {
	// if we error in reporting, let's do so early before dispatching
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}

	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	tag := common.KVPair{
		Key:   []byte(ActionKey),
		Value: []byte(msg.Path()),
	}
	for i := range res.Events {
		res.Events[i].Tags = append(res.Events[i].Tags, tag)
	}
	return res, nil
}
