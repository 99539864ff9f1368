package postgresql

import (
	"database/sql"
	"sync"

	_ "github.com/lib/pq"
	"github.com/tsel-ticketmaster/tm-fulfillment/config"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/applogger"
)

var (
	db   *sql.DB
	once sync.Once
)

// GetDatabase returns the shared postgres connection pool.
func GetDatabase() *sql.DB {
	once.Do(func() {
		c := config.Get()
		logger := applogger.GetLogrus()

		conn, err := sql.Open("postgres", c.Postgres.DSN)
		if err != nil {
			logger.WithError(err).Fatal("an error occurred while opening postgres connection")
		}

		conn.SetMaxOpenConns(c.Postgres.MaxOpenConns)
		conn.SetMaxIdleConns(c.Postgres.MaxIdleConns)
		conn.SetConnMaxLifetime(c.Postgres.ConnMaxLifetime)

		db = conn
	})

	return db
}
