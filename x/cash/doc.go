/*
Package cash keeps the balance of every identity that takes part in the
bounty settlement.

Balances are plain unsigned amounts of the single settlement asset. The
escrow vaults are wallets too, owned by a derived address, so moving funds
into or out of a vault is an ordinary MoveCoins call.
*/
package cash
