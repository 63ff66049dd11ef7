// Package tx defines the transaction boundary the domain services
// depend on, keeping them free of any database driver import.
package tx

import (
	"context"
)

// Manager runs a function inside a database transaction. An error from
// fn rolls the transaction back; success commits it. Calls made while a
// transaction is already open join it instead of opening another, so a
// service method can compose repository calls without caring whether
// its caller already started one.
//
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
