package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"taskbounty/portal/internal/config"
)

// Connect opens a sqlx handle on Postgres through lib/pq, retrying while the
// database comes up.
func Connect(dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("failed to connect to postgres: %w", err)
}

// OpenSQLX returns the handle used for raw maintenance queries. SQLite shares
// gorm's pool; Postgres gets its own small lib/pq pool.
func OpenSQLX(cfg config.DBConfig, orm *gorm.DB) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(2)
		return db, nil
	case "sqlite":
		sqlDB, err := orm.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		return sqlx.NewDb(sqlDB, "sqlite3"), nil
	}
	return nil, fmt.Errorf("unsupported DB driver %q", cfg.Driver)
}
