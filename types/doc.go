// Package types holds the request/response shapes and enumerations shared by
// the repository layer: search requests, paged search responses, operation
// modes and transaction states.
package types
