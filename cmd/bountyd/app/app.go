/*
Package bountyd links together all the various components
to construct the bountyd node.
*/
package bountyd

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/app"
	"github.com/iov-one/bounty/x"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
	"github.com/iov-one/bounty/x/sigs"
	"github.com/iov-one/bounty/x/utils"
)

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		sigs.NewDecorator(),
		utils.NewActionTagger(),
	)
}

// Router returns a router dispatching to the cash and escrow handlers.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	bank := cash.NewController(cash.NewBucket())
	cash.RegisterRoutes(r, authFn, bank, escrow.NewVaultGuard())
	escrow.RegisterRoutes(r, authFn, bank)
	return r
}

// QueryRouter returns a default query router,
// allowing access to "/wallets", "/auth", "/vaults", "/approvals" and
// "/escrowstate"
func QueryRouter() bounty.QueryRouter {
	r := bounty.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		escrow.RegisterQuery,
		sigs.RegisterQuery,
	)
	return r
}

// Initializers returns the initializers of all extensions that read the
// genesis.
func Initializers() bounty.Initializer {
	return bounty.NewChainInitializers(
		cash.Initializer{},
		escrow.Initializer{},
	)
}

// Stack wires up a standard router with a standard decorator
// chain.
func Stack() bounty.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn))
}
