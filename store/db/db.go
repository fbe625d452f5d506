package db

import (
	"github.com/pkg/errors"

	"github.com/shvkateryna/internship/internal/profile"
	"github.com/shvkateryna/internship/store"
	"github.com/shvkateryna/internship/store/db/postgres"
	"github.com/shvkateryna/internship/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
// The memory driver has no database and is handled by the session package.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
