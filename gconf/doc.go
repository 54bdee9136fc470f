/*
Package gconf implements a store for singleton records intended to be used as a
global, in-database configuration.

Each extension keeps at most one such record, stored under the "_c:<pkg>" key.
A record can be initialized from the genesis file and then loaded and saved
by the handlers of the owning extension.
*/
package gconf
