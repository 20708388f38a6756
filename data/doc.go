// Package data holds the application entities and the unit of work that
// exposes their repositories.
package data
