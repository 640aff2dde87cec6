// Package sqlitepath resolves and opens the SQLite policy database used by
// wca commands.
package sqlitepath

import (
	"errors"
	"log/slog"

	"github.com/papercomputeco/worstcase/pkg/dotdir"
	"github.com/papercomputeco/worstcase/pkg/storage"
	"github.com/papercomputeco/worstcase/pkg/storage/inmemory"
	"github.com/papercomputeco/worstcase/pkg/storage/sqlite"
)

// ErrNoDatabase is returned when no policy database can be located.
var ErrNoDatabase = errors.New("could not find wca policy database; pass --sqlite or run wca init")

// ResolveSQLitePath returns override when set, else the policies.db inside
// the resolved .wca/ directory.
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	p, err := dotdir.NewManager().PolicyDBPath(configDir)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", ErrNoDatabase
	}
	return p, nil
}

// Open opens the policy database. When required is false and no database
// can be located, an in-memory driver is returned instead.
func Open(override, configDir string, required bool, logger *slog.Logger) (storage.Driver, error) {
	p, err := ResolveSQLitePath(override, configDir)
	switch {
	case errors.Is(err, ErrNoDatabase) && !required:
		logger.Debug("no policy database, policies are kept in memory")
		return inmemory.NewDriver(), nil
	case err != nil:
		return nil, err
	}

	logger.Debug("opening policy database", "path", p)
	return sqlite.NewDriver(p)
}
