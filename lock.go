package bounty

import (
	"sort"
)

// Lock declares access to a single record that a transaction is going to
// read or modify. Records are identified by a key that is unique across all
// extensions, for example "escrow/vault/0000000000000007".
type Lock struct {
	Key       string
	Exclusive bool
}

// ExclusiveLock returns a lock for a record that is going to be modified.
func ExclusiveLock(key string) Lock {
	return Lock{Key: key, Exclusive: true}
}

// SharedLock returns a lock for a record that is only read.
func SharedLock(key string) Lock {
	return Lock{Key: key}
}

// Scoper is implemented by handlers and decorators that can declare upfront
// which records a transaction touches. Transactions touching disjoint sets of
// records can then be executed in parallel.
//
// Scope may read the store in order to discover records, for example the
// payout addresses of a vault. It must not modify it.
type Scoper interface {
	Scope(ctx Context, db ReadOnlyKVStore, tx Tx) ([]Lock, error)
}

// NormalizeLocks returns a sorted list of locks without duplicates. If the
// same key is declared more than once, the strongest access mode wins.
func NormalizeLocks(locks []Lock) []Lock {
	byKey := make(map[string]bool, len(locks))
	for _, l := range locks {
		byKey[l.Key] = byKey[l.Key] || l.Exclusive
	}
	res := make([]Lock, 0, len(byKey))
	for k, excl := range byKey {
		res = append(res, Lock{Key: k, Exclusive: excl})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Key < res[j].Key })
	return res
}

// Covers returns true if every lock from want is already held by given set
// with the same or stronger access mode. Both lists must be normalized.
func Covers(held, want []Lock) bool {
	i := 0
	for _, w := range want {
		for i < len(held) && held[i].Key < w.Key {
			i++
		}
		if i == len(held) || held[i].Key != w.Key {
			return false
		}
		if w.Exclusive && !held[i].Exclusive {
			return false
		}
	}
	return true
}
