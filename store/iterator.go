package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/bounty/errors"
)

// collectBtree returns all items within [start, end) in ascending order.
// Items are copied out so that the iterator does not hold any reference to
// the tree while it is being modified.
func collectBtree(bt *btree.BTree, start, end []byte) []keyer {
	var res []keyer
	collect := func(item btree.Item) bool {
		res = append(res, item.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return res
}

// itemIter merges cached items with the parent iterator. Cached items
// shadow parent entries with the same key and deleted items hide them.
type itemIter struct {
	ours   []keyer
	parent Iterator

	parentKey   []byte
	parentValue []byte
	parentDone  bool

	descending bool
}

var _ Iterator = (*itemIter)(nil)

func newItemIter(ours []keyer, parent Iterator, descending bool) (*itemIter, error) {
	it := &itemIter{
		ours:       ours,
		parent:     parent,
		descending: descending,
	}
	if err := it.advanceParent(); err != nil {
		parent.Release()
		return nil, err
	}
	return it, nil
}

func (i *itemIter) advanceParent() error {
	if i.parentDone {
		return nil
	}
	key, value, err := i.parent.Next()
	if errors.ErrIteratorDone.Is(err) {
		i.parentDone = true
		i.parentKey, i.parentValue = nil, nil
		return nil
	}
	if err != nil {
		return err
	}
	i.parentKey, i.parentValue = key, value
	return nil
}

// order compares two keys according to the iteration direction.
func (i *itemIter) order(a, b []byte) int {
	cmp := bytes.Compare(a, b)
	if i.descending {
		return -cmp
	}
	return cmp
}

// Next returns the next visible key value pair.
func (i *itemIter) Next() (key, value []byte, err error) {
	for {
		if len(i.ours) == 0 {
			if i.parentDone {
				return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache iterator")
			}
			key, value = i.parentKey, i.parentValue
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		}

		item := i.ours[0]
		cmp := -1
		if !i.parentDone {
			cmp = i.order(item.Key(), i.parentKey)
		}
		if cmp > 0 {
			key, value = i.parentKey, i.parentValue
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		}

		i.ours = i.ours[1:]
		if cmp == 0 {
			// cached value overwrites the parent one
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
		}
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
		// deleted item, skip it
	}
}

// Release releases the Iterator.
func (i *itemIter) Release() {
	i.parent.Release()
	i.ours = nil
}
