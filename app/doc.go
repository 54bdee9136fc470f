/*
Package app contains the transaction executor of the bounty settlement core
together with the pieces needed to build it: a router dispatching messages
to handlers, the decorator chain, genesis loading and event publishing.

Transactions are executed in parallel. Before running, the executor asks the
handler stack which records the transaction touches (see bounty.Scoper) and
acquires a lock for each of them. Transactions touching disjoint records do
not wait for each other, while those sharing a record are serialized. Every
transaction runs within its own cache wrap that is written to the shared
store only on success.
*/
package app
