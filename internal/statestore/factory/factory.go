// Package factory selects a statestore backend from a DSN.
package factory

import (
	"errors"
	"strings"

	"github.com/loykin/respawn/internal/statestore"
	pg "github.com/loykin/respawn/internal/statestore/postgres"
	sq "github.com/loykin/respawn/internal/statestore/sqlite"
)

// NewFromDSN selects a gateway implementation based on DSN.
// Supported:
//   - file:     "file://<path>" or a bare filesystem path (the default backend)
//   - sqlite:   "sqlite://<path>"
//   - postgres: DSN starting with "postgres://" or "postgresql://"
func NewFromDSN(dsn string) (statestore.Gateway, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty DSN")
	}
	if strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://") {
		return pg.New(d)
	}
	if strings.HasPrefix(ld, "sqlite://") {
		return sq.New(strings.TrimPrefix(d, "sqlite://"))
	}
	if strings.HasPrefix(ld, "file://") {
		return statestore.NewFile(strings.TrimPrefix(d, "file://"))
	}
	// default to a plain JSON state file
	return statestore.NewFile(d)
}
