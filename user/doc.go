// Package user holds the account entity, its validation rules, the domain
// service that mutates accounts, and a bun-backed repository.
package user
