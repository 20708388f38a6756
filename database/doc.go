// Package database provides connection management, configuration, logging,
// query hooks, metrics, SQL error classification and table bootstrap for the
// repository layer, built on top of Bun.
package database
