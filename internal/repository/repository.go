// Package repository defines the key-value adapter every record lives behind.
//
// THE ADAPTER CONTRACT:
// Storage is a flat namespace of string keys holding string values. There are
// only four primitive operations (Get, Set, Delete, ListKeys) plus two ways of
// grouping them:
//
//   - Update runs a function inside a read-write transaction. Either every
//     Set/Delete made through the Tx lands, or none of them does.
//   - View runs a function against a read-only snapshot.
//
// Grouping matters because a collection write and its activity-log append must
// never diverge: the record store does both inside one Update.
//
// Two implementations live in subpackages:
//   - repository/sqlite  persistent, backed by modernc.org/sqlite
//   - repository/memory  map-backed, used for tests, dev, and session scope
package repository

import "context"

// Tx is the set of primitive key-value operations. A Store is itself a Tx
// (each call is its own tiny transaction); inside Update/View the callback
// receives a Tx bound to the enclosing transaction.
type Tx interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// ListKeys returns every key starting with prefix, sorted ascending.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Store is a Tx with transaction boundaries and a lifecycle.
type Store interface {
	Tx
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
