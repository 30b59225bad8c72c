// db.go
//
// Store selection for the Pixel Words server.
// Responsibilities:
//   - DB_DRIVER=memory: in-process ledger (lost on restart).
//   - DB_DRIVER=sqlite3 | postgres: open the database, apply the embedded
//     migrations and wrap it in the SQL ledger.

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pixelwords/internal/config"
	"github.com/robalobadob/pixelwords/internal/store"
)

// openStore returns the configured Store and a close func for its resources.
func openStore(cfg config.Server) (store.Store, func(), error) {
	if cfg.DBDriver == "memory" {
		log.Warn().Msg("using in-memory store; progress is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("driver", cfg.DBDriver).Str("dsn", cfg.DBDSN).Msg("database ready")
	return store.NewSQLStore(db), func() { _ = db.Close() }, nil
}
