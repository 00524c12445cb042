// Package backend picks the account and stats stores the end-of-day processor
// works against.
package backend

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vapor/internal/config"
	statsrepo "github.com/fastprodman/vapor/internal/repos/stats"
	pgstats "github.com/fastprodman/vapor/internal/repos/stats/postgres"
	"github.com/fastprodman/vapor/internal/repos/stats/textfile"
	"github.com/fastprodman/vapor/internal/repos/users"
	"github.com/fastprodman/vapor/internal/repos/users/jsonfile"
	pgusers "github.com/fastprodman/vapor/internal/repos/users/postgres"
)

const (
	File     = "file"
	Postgres = "postgres"
)

var (
	ErrUnknownStore = errors.New("unknown store")
	ErrNoDatabase   = errors.New("store needs a database")
)

// Stores is the set of repositories for one backend. Export is non-nil when
// Users is not the users.json file the front end reads at start of day.
type Stores struct {
	Users  users.Store
	Export users.Store
	Stats  statsrepo.Store
}

func Open(kind string, files config.FilesConfig, db *sql.DB) (Stores, error) {
	usersFile := jsonfile.New(files.Users, files.Market)

	switch kind {
	case File:
		return Stores{Users: usersFile, Stats: textfile.New(files.Stats)}, nil
	case Postgres:
		if db == nil {
			return Stores{}, fmt.Errorf("%s: %w", kind, ErrNoDatabase)
		}

		return Stores{Users: pgusers.New(db), Export: usersFile, Stats: pgstats.New(db)}, nil
	default:
		return Stores{}, fmt.Errorf("%w %q", ErrUnknownStore, kind)
	}
}
