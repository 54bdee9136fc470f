/*
Package x contains the extensions of the bounty settlement core.

Extensions implement common functionality (Handler, Decorator,
Initializer) and are combined together by the app package to construct
the escrow service. Authentication helpers shared by all extensions live
in this package, so that handlers can depend on the Authenticator
interface instead of a concrete signature scheme.
*/
package x
