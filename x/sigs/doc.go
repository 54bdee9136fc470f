/*
Package sigs provides basic authentication
middleware to verify the signatures on the transaction,
and maintain nonces for replay protection.

Every identity that ever signed a transaction has a UserData record that
holds its public key and the sequence (nonce) that the next signature must
use.
*/
package sigs
