// Package accounts defines the account model and the Store collaborator the
// engine reads identities from and writes refresh references to.
//
// Role is a closed enumeration. Records with any other role value are
// rejected when loaded, so callers never observe an account with a dynamic
// role string.
//
// Two implementations are provided: MemoryStore for tests and single-node
// use, and PostgresStore backed by database/sql and the pgx driver.
package accounts
