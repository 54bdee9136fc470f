package weavetest

import (
	"bytes"
	"testing"
	"time"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

func TestSequenceID(t *testing.T) {
	numToEnc := map[uint64][]byte{
		1:      []byte{0, 0, 0, 0, 0, 0, 0, 1},
		2:      []byte{0, 0, 0, 0, 0, 0, 0, 2},
		123:    []byte{0, 0, 0, 0, 0, 0, 0, 123},
		123123: []byte{0, 0, 0, 0, 0, 1, 224, 243},
	}
	for id, want := range numToEnc {
		got := SequenceID(id)
		if !bytes.Equal(want, got) {
			t.Fatalf("id=%d, want %d got %d", id, want, got)
		}
	}
}

func TestTxMsg(t *testing.T) {
	tx := &Tx{Msg: &Msg{RoutePath: "escrow/deposit"}}
	if got := bounty.GetPath(tx); got != "escrow/deposit" {
		t.Fatalf("unexpected path: %q", got)
	}

	broken := &Tx{Msg: &Msg{RoutePath: "escrow/release", Err: errors.ErrInvalidMsg}}
	var msg Msg
	if err := bounty.LoadMsg(broken, &msg); !errors.ErrInvalidMsg.Is(err) {
		t.Fatalf("want invalid message error, got %+v", err)
	}
}

func TestClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start)
	if !c.Now().Equal(start) {
		t.Fatalf("unexpected time: %s", c.Now())
	}
	c.Advance(time.Hour)
	if want := start.Add(time.Hour); !c.Now().Equal(want) {
		t.Fatalf("want %s, got %s", want, c.Now())
	}
}
