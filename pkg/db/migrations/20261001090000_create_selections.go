package migrations

import (
	"database/sql"

	"github.com/jingkaihe/skillstack/pkg/db"
	"github.com/pkg/errors"
)

// Migration20261001090000CreateSelections creates the saved selections table.
func Migration20261001090000CreateSelections() db.Migration {
	return db.Migration{
		Version:     20261001090000,
		Description: "Create selections table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS selections (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE,
					description TEXT NOT NULL DEFAULT '',
					skills TEXT NOT NULL DEFAULT '[]',
					expert_mode BOOLEAN NOT NULL DEFAULT 0,
					matrix_version TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)
			`)
			return errors.Wrap(err, "failed to create selections table")
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec("DROP TABLE IF EXISTS selections")
			return errors.Wrap(err, "failed to drop selections table")
		},
	}
}
