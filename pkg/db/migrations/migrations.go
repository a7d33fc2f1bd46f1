// Package migrations holds the skillstack schema history
package migrations

import "github.com/jingkaihe/skillstack/pkg/db"

// All returns every migration in version order
func All() []db.Migration {
	return []db.Migration{
		Migration20261001090000CreateSelections(),
		Migration20261001090001AddSelectionsUpdatedIndex(),
	}
}
