/*
Package weavetest provides mocks and helpers that are useful when testing
extensions of the bounty settlement core.
*/
package weavetest
