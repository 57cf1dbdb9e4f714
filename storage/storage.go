// Package storage opens the key-value backend selected by the configuration.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/storage/database"
	inmemdb "github.com/trezcool/censo/storage/database/inmem"
	redisdb "github.com/trezcool/censo/storage/database/redis"
	sqlxdb "github.com/trezcool/censo/storage/database/sqlx"
)

// Open returns the configured store. SQL databases are migrated before use.
func Open(ctx context.Context, conf core.StorageConfig) (core.KVStore, error) {
	switch conf.Driver {
	case core.DriverMemory:
		return inmemdb.Open(), nil
	case core.DriverSQLite, core.DriverPostgres:
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db.DB, conf.Driver); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlxdb.New(db), nil
	case core.DriverRedis:
		return redisdb.Open(ctx, conf)
	}
	return nil, errors.Errorf("unknown storage driver %q", conf.Driver)
}
