package migrations

import (
	"database/sql"

	"github.com/jingkaihe/skillstack/pkg/db"
	"github.com/pkg/errors"
)

func Migration20261001090001AddSelectionsUpdatedIndex() db.Migration {
	return db.Migration{
		Version:     20261001090001,
		Description: "Index selections by updated_at",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_selections_updated_at ON selections(updated_at DESC)")
			return errors.Wrap(err, "failed to create updated_at index")
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec("DROP INDEX IF EXISTS idx_selections_updated_at")
			return errors.Wrap(err, "failed to drop updated_at index")
		},
	}
}
