package store

import "github.com/iov-one/bounty"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = bounty.ReadOnlyKVStore
	SetDeleter       = bounty.SetDeleter
	KVStore          = bounty.KVStore
	Batch            = bounty.Batch
	Iterator         = bounty.Iterator
	CacheableKVStore = bounty.CacheableKVStore
	KVCacheWrap      = bounty.KVCacheWrap
	CommitKVStore    = bounty.CommitKVStore
	CommitID         = bounty.CommitID
	Model            = bounty.Model
)

// Pair constructs a model from a key-value pair
var Pair = bounty.Pair
