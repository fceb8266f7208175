// Package customer provides read access to customer and case records.
//
// The lifecycle engine consumes customers read-only; writes happen in the
// surrounding intake application. Two implementations are provided: a
// Postgres repository for production and an in-memory repository used by
// tests and local runs.
package customer
