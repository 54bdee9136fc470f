/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* It has a primary key, that may be composite (for example vuln id
followed by an approver address).
* Easy queries for one and iteration over a key prefix.

Models are serialized using the amino binary encoding, which is
deterministic and does not require generated code.
*/
package orm
