// Package repository provides generic repositories built on Bun: CRUD and
// upsert through an EntitySet, filtered and paginated search with
// column-name ordering, and a UnitOfWork that groups the writes of several
// repositories into one transaction.
package repository
