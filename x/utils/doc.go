/*
Package utils provides decorators that are not bound to any extension:
panic recovery, transaction logging and event tagging.
*/
package utils
