package weavetest

import (
	"encoding/binary"

	"github.com/iov-one/bounty"
)

// Tx represents a transaction carrying a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg bounty.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ bounty.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (bounty.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg represents a request processed within a single transaction.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Err if set is returned by the Validate method.
	Err error
}

var _ bounty.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}

// SequenceID returns an ID encoded as if it was generated by the
// orm.Sequence.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
