package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/weavetest/assert"
)

// TestSuite runs the same set of checks against any CacheableKVStore
// implementation. Only the constructor differs between the in memory btree,
// the synced wrapper and the iavl adapter.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store together with a function
// releasing all resources held by it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet checks that writes done in a cache are only visible to the parent
// after the cache is written and never after it is discarded.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	vault, held := []byte("vault:1"), []byte("500")
	s.AssertGetHas(t, base, vault, nil, false)
	assert.Nil(t, base.Set(vault, held))
	s.AssertGetHas(t, base, vault, held, true)

	tx := base.CacheWrap()
	s.AssertGetHas(t, tx, vault, held, true)

	approval, signer := []byte("approval:1:alice"), []byte("alice")
	assert.Nil(t, tx.Set(approval, signer))
	s.AssertGetHas(t, tx, approval, signer, true)
	s.AssertGetHas(t, base, approval, nil, false)

	assert.Nil(t, tx.Write())
	s.AssertGetHas(t, base, approval, signer, true)

	failed := base.CacheWrap()
	assert.Nil(t, failed.Set([]byte("vault:2"), []byte("100")))
	assert.Nil(t, failed.Delete(vault))
	failed.Discard()
	s.AssertGetHas(t, base, []byte("vault:2"), nil, false)
	s.AssertGetHas(t, base, vault, held, true)

	release := base.CacheWrap()
	assert.Nil(t, release.Delete(vault))
	s.AssertGetHas(t, release, vault, nil, false)
	s.AssertGetHas(t, base, vault, held, true)
	assert.Nil(t, release.Write())
	s.AssertGetHas(t, base, vault, nil, false)
	s.AssertGetHas(t, base, approval, signer, true)
}

// CacheConflicts checks that a cache shadows parent values it overwrites or
// deletes and that writing it back replaces them.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 32)

	cases := map[string]struct {
		parent []Op
		child  []Op
		// values expected in the parent before and after the write
		before map[int][]byte
		after  map[int][]byte
	}{
		"overwrite in child": {
			parent: []Op{SetOp(ks[0], vs[0])},
			child:  []Op{SetOp(ks[0], vs[1])},
			before: map[int][]byte{0: vs[0]},
			after:  map[int][]byte{0: vs[1]},
		},
		"delete in child": {
			parent: []Op{SetOp(ks[0], vs[0]), SetOp(ks[1], vs[1])},
			child:  []Op{DelOp(ks[1])},
			before: map[int][]byte{0: vs[0], 1: vs[1]},
			after:  map[int][]byte{0: vs[0], 1: nil},
		},
		"set then delete in child": {
			child:  []Op{SetOp(ks[2], vs[2]), DelOp(ks[2])},
			before: map[int][]byte{2: nil},
			after:  map[int][]byte{2: nil},
		},
		"delete then set in child": {
			parent: []Op{SetOp(ks[3], vs[0])},
			child:  []Op{DelOp(ks[3]), SetOp(ks[3], vs[3])},
			before: map[int][]byte{3: vs[0]},
			after:  map[int][]byte{3: vs[3]},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()
			for _, op := range tc.parent {
				assert.Nil(t, op.Apply(parent))
			}

			child := parent.CacheWrap()
			for _, op := range tc.child {
				assert.Nil(t, op.Apply(child))
			}

			for i, want := range tc.before {
				s.AssertGetHas(t, parent, ks[i], want, want != nil)
			}
			for i, want := range tc.after {
				s.AssertGetHas(t, child, ks[i], want, want != nil)
			}

			assert.Nil(t, child.Write())
			for i, want := range tc.after {
				s.AssertGetHas(t, parent, ks[i], want, want != nil)
			}
		})
	}
}

// Iteration checks range iteration in both directions over a cache layered
// on top of a parent holding a different set of records.
func (s *TestSuite) Iteration(t *testing.T) {
	const size = 40

	inParent := randModels(size, 8, 24)
	inChild := randModels(size, 8, 24)
	gone := randModels(10, 8, 24)
	merged := sortModels(append(append([]Model{}, inParent...), inChild...))

	shadow := randModels(3, 12, 24)
	overwritten := []Model{
		{Key: shadow[0].Key, Value: []byte("updated")},
		shadow[1],
		{Key: shadow[2].Key, Value: []byte("updated")},
	}
	overwritten = sortModels(overwritten)

	cases := map[string]iterCase{
		"child only": {
			child:   append(makeSetOps(inChild...), makeDelOps(gone...)...),
			queries: rangeQueries(sortModels(inChild)),
		},
		"parent only": {
			pre:     makeSetOps(inParent...),
			queries: rangeQueries(sortModels(inParent)),
		},
		"parent and child merged": {
			pre:     append(makeSetOps(inParent...), makeDelOps(gone...)...),
			child:   makeSetOps(inChild...),
			queries: rangeQueries(merged),
		},
		"child values shadow parent": {
			pre: makeSetOps(shadow...),
			child: []Op{
				SetOp(shadow[0].Key, []byte("updated")),
				SetOp(shadow[2].Key, []byte("updated")),
			},
			queries: []rangeQuery{
				{nil, nil, false, overwritten},
				{nil, nil, true, reverse(overwritten)},
			},
		},
		"deleted parent records are skipped": {
			pre:   makeSetOps(shadow...),
			child: makeDelOps(shadow[0], shadow[2]),
			queries: []rangeQuery{
				{nil, nil, false, []Model{shadow[1]}},
				{nil, nil, true, []Model{shadow[1]}},
				{nil, shadow[1].Key, false, nil},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

// rangeQueries builds forward and reverse queries with and without bounds
// over a sorted set of at least 30 models.
func rangeQueries(sorted []Model) []rangeQuery {
	n := len(sorted)
	return []rangeQuery{
		{nil, nil, false, sorted},
		{sorted[5].Key, nil, false, sorted[5:]},
		{nil, sorted[n-7].Key, false, sorted[:n-7]},
		{sorted[11].Key, sorted[23].Key, false, sorted[11:23]},
		{nil, nil, true, reverse(sorted)},
		{sorted[n-9].Key, nil, true, reverse(sorted[n-9:])},
		{nil, sorted[17].Key, true, reverse(sorted[:17])},
		{sorted[3].Key, sorted[29].Key, true, reverse(sorted[3:29])},
	}
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Model{Key: randBytes(keySize), Value: randBytes(valueSize)}
	}
	return models
}

type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (c iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	for _, op := range c.pre {
		assert.Nil(t, op.Apply(base))
	}
	child := base.CacheWrap()
	for _, op := range c.child {
		assert.Nil(t, op.Apply(child))
	}

	for qi, q := range c.queries {
		var (
			it  Iterator
			err error
		)
		if q.reverse {
			it, err = child.ReverseIterator(q.start, q.end)
		} else {
			it, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		for i, want := range q.expected {
			key, value, err := it.Next()
			if err != nil {
				t.Fatalf("query %d: item %d: %+v", qi, i, err)
			}
			if !bytes.Equal(want.Key, key) {
				t.Fatalf("query %d: item %d: want key %X, got %X", qi, i, want.Key, key)
			}
			assert.Equal(t, want.Value, value)
		}
		if _, _, err := it.Next(); !errors.ErrIteratorDone.Is(err) {
			t.Fatalf("query %d: want iterator done, got %+v", qi, err)
		}
		it.Release()
	}
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := append([]Model(nil), models...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
