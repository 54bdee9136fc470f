/*
Package bounty defines interfaces used throughout the escrow settlement core,
such as: identities, storage, transactions, handlers and record locks.
It also contains helpers to work with context and time.
Look into this package to get a brief overview of design decisions made
around interfaces and extension building blocks.
*/
package bounty
