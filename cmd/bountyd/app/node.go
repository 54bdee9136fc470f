package bountyd

import (
	"path/filepath"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/app"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/store"
	"github.com/iov-one/bounty/store/iavl"
	"github.com/iov-one/bounty/x/sigs"
)

// Node runs transactions against the state persisted in a home directory.
type Node struct {
	*app.Executor

	tree iavl.CommitStore
	db   *store.Synced
}

// OpenNode loads the latest committed state kept in the data directory of
// given home. Close the node when done.
func OpenNode(home string, logger log.Logger) (*Node, error) {
	tree, err := iavl.NewCommitStore(filepath.Join(home, "data"), "bounty")
	if err != nil {
		return nil, err
	}
	if err := tree.LoadLatestVersion(); err != nil {
		tree.Close()
		return nil, err
	}
	n, err := newNode(tree, logger)
	if err != nil {
		tree.Close()
		return nil, err
	}
	return n, nil
}

func newNode(tree iavl.CommitStore, logger log.Logger) (*Node, error) {
	db := store.NewSynced(tree.Adapter())
	exec, err := app.NewExecutor(db, app.Config{
		Handler:     Stack(),
		Initializer: Initializers(),
		Queries:     QueryRouter(),
		Logger:      logger,
		Sinks: []app.EventSink{
			app.LogSink{Logger: logger.With("module", "events")},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "executor")
	}
	return &Node{Executor: exec, tree: tree, db: db}, nil
}

// Commit persists all delivered transactions as a new version of the
// state.
func (n *Node) Commit() (store.CommitID, error) {
	var id store.CommitID
	err := n.db.Update(func(store.KVStore) error {
		var err error
		id, err = n.tree.Commit()
		return err
	})
	return id, err
}

// LastCommit returns the version and hash of the latest committed state.
func (n *Node) LastCommit() (store.CommitID, error) {
	return n.tree.LatestVersion()
}

// NextNonce returns the sequence that the signer must use for its next
// transaction.
func (n *Node) NextNonce(signer bounty.Address) (int64, error) {
	return sigs.NextNonce(n.db, signer)
}

// Close releases the database.
func (n *Node) Close() {
	n.tree.Close()
}
