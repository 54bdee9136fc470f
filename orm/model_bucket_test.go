package orm

import (
	"testing"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/store"
	"github.com/iov-one/bounty/weavetest/assert"
)

type Counter struct {
	Count int64
	Owner bounty.Address
}

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrInvalidModel, "negative count")
	}
	return nil
}

func (c *Counter) Copy() Model {
	cpy := *c
	cpy.Owner = c.Owner.Clone()
	return &cpy
}

type Other struct {
	Name string
}

func (o *Other) Validate() error { return nil }
func (o *Other) Copy() Model     { cpy := *o; return &cpy }

func TestModelBucket(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket("cnts", &Counter{})

	if err := b.Put(db, []byte("c1"), &Counter{Count: 1}); err != nil {
		t.Fatalf("cannot save counter instance: %s", err)
	}

	var c1 Counter
	if err := b.One(db, []byte("c1"), &c1); err != nil {
		t.Fatalf("cannot get c1 counter: %s", err)
	}
	if c1.Count != 1 {
		t.Fatalf("unexpected counter state: %d", c1.Count)
	}
	ok, err := b.Has(db, []byte("c1"))
	assert.Nil(t, err)
	assert.Equal(t, true, ok)

	if err := b.Put(db, []byte("bad"), &Counter{Count: -1}); !errors.ErrInvalidModel.Is(err) {
		t.Fatalf("unexpected error for invalid model: %v", err)
	}
	if err := b.Put(db, []byte("other"), &Other{Name: "x"}); !errors.ErrInvalidType.Is(err) {
		t.Fatalf("unexpected error for a model of a different type: %v", err)
	}
	if err := b.One(db, []byte("c1"), &Other{}); !errors.ErrInvalidType.Is(err) {
		t.Fatalf("unexpected error for a destination of a different type: %v", err)
	}

	if err := b.Delete(db, []byte("c1")); err != nil {
		t.Fatalf("cannot delete c1 counter: %s", err)
	}
	if err := b.Delete(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error when deleting unexisting instance: %s", err)
	}
	if err := b.One(db, []byte("c1"), &c1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model get: %s", err)
	}
}

func TestModelBucketByPrefix(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	owner := bounty.NewAddress([]byte("owner"))
	for key, cnt := range map[string]int64{"a/1": 1, "a/2": 2, "b/1": 3} {
		assert.Nil(t, b.Put(db, []byte(key), &Counter{Count: cnt, Owner: owner}))
	}

	var ptrs []*Counter
	keys, err := b.ByPrefix(db, []byte("a/"), &ptrs)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("a/1"), []byte("a/2")}, keys)
	assert.Equal(t, 2, len(ptrs))
	assert.Equal(t, int64(1), ptrs[0].Count)
	assert.Equal(t, int64(2), ptrs[1].Count)
	assert.Equal(t, owner, ptrs[1].Owner)

	var values []Counter
	keys, err = b.ByPrefix(db, nil, &values)
	assert.Nil(t, err)
	assert.Equal(t, 3, len(keys))
	assert.Equal(t, int64(3), values[2].Count)

	var others []Other
	_, err = b.ByPrefix(db, nil, &others)
	assert.IsErr(t, errors.ErrInvalidType, err)

	_, err = b.ByPrefix(db, nil, values)
	assert.IsErr(t, errors.ErrHuman, err)
}

func TestBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})
	assert.Nil(t, b.Put(db, []byte("a/1"), &Counter{Count: 1}))
	assert.Nil(t, b.Put(db, []byte("a/2"), &Counter{Count: 2}))

	qr := bounty.NewQueryRouter()
	b.Register("counters", qr)
	h := qr.Handler("/counters")
	if h == nil {
		t.Fatal("query handler not registered")
	}

	res, err := h.Query(db, bounty.KeyQueryMod, []byte("a/2"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res))
	assert.Equal(t, []byte("cnts:a/2"), res[0].Key)
	var c Counter
	assert.Nil(t, Unmarshal(res[0].Value, &c))
	assert.Equal(t, int64(2), c.Count)

	res, err = h.Query(db, bounty.KeyQueryMod, []byte("a/3"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(res))

	res, err = h.Query(db, bounty.PrefixQueryMod, []byte("a/"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))

	_, err = h.Query(db, "range", nil)
	assert.IsErr(t, errors.ErrInvalidInput, err)
}
