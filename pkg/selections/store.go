// Package selections persists named skill selections in SQLite and keeps the
// per-project selection file.
package selections

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillstack/pkg/db"
	"github.com/jingkaihe/skillstack/pkg/db/migrations"
	"github.com/jingkaihe/skillstack/pkg/logger"
)

// ErrNotFound is returned when no saved selection matches
var ErrNotFound = errors.New("selection not found")

// Selection is a named, saved set of skill IDs
type Selection struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	Skills        []string  `json:"skills" yaml:"skills"`
	ExpertMode    bool      `json:"expert_mode" yaml:"expert_mode"`
	MatrixVersion string    `json:"matrix_version,omitempty" yaml:"matrix_version,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// stringList stores a string slice as a JSON array column
type stringList []string

func (l *stringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("cannot scan %T into stringList", value)
	}
	return json.Unmarshal(data, (*[]string)(l))
}

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		l = stringList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

type dbSelection struct {
	ID            string     `db:"id"`
	Name          string     `db:"name"`
	Description   string     `db:"description"`
	Skills        stringList `db:"skills"`
	ExpertMode    bool       `db:"expert_mode"`
	MatrixVersion string     `db:"matrix_version"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r dbSelection) toSelection() Selection {
	skills := []string(r.Skills)
	if skills == nil {
		skills = []string{}
	}
	return Selection{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Skills:        skills,
		ExpertMode:    r.ExpertMode,
		MatrixVersion: r.MatrixVersion,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Store keeps saved selections in SQLite
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore opens the database at dbPath and applies pending migrations
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	conn, err := db.OpenAndMigrate(ctx, dbPath, migrations.All())
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialise selection store")
	}
	return &Store{db: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save creates or replaces the selection with sel.Name. The ID and creation
// time of an existing selection are kept.
func (s *Store) Save(ctx context.Context, sel Selection) (Selection, error) {
	sel.Name = strings.TrimSpace(sel.Name)
	if sel.Name == "" {
		return Selection{}, errors.New("selection name is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Selection{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var existing dbSelection
	err = tx.GetContext(ctx, &existing, "SELECT * FROM selections WHERE name = ?", sel.Name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		sel.ID = uuid.New().String()
		sel.CreatedAt = s.now()
	case err != nil:
		return Selection{}, errors.Wrapf(err, "failed to look up selection %s", sel.Name)
	default:
		sel.ID = existing.ID
		sel.CreatedAt = existing.CreatedAt
	}
	sel.UpdatedAt = s.now()

	row := dbSelection{
		ID:            sel.ID,
		Name:          sel.Name,
		Description:   sel.Description,
		Skills:        stringList(sel.Skills),
		ExpertMode:    sel.ExpertMode,
		MatrixVersion: sel.MatrixVersion,
		CreatedAt:     sel.CreatedAt,
		UpdatedAt:     sel.UpdatedAt,
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO selections (id, name, description, skills, expert_mode, matrix_version, created_at, updated_at)
		VALUES (:id, :name, :description, :skills, :expert_mode, :matrix_version, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			skills = excluded.skills,
			expert_mode = excluded.expert_mode,
			matrix_version = excluded.matrix_version,
			updated_at = excluded.updated_at
	`, row); err != nil {
		return Selection{}, errors.Wrapf(err, "failed to save selection %s", sel.Name)
	}

	if err := tx.Commit(); err != nil {
		return Selection{}, errors.Wrap(err, "failed to commit selection")
	}

	logger.G(ctx).WithField("selection", sel.Name).WithField("skills", len(sel.Skills)).Debug("saved selection")
	if sel.Skills == nil {
		sel.Skills = []string{}
	}
	return sel, nil
}

// Get returns a selection by name or ID
func (s *Store) Get(ctx context.Context, nameOrID string) (Selection, error) {
	var row dbSelection
	err := s.db.GetContext(ctx, &row, "SELECT * FROM selections WHERE name = ? OR id = ? LIMIT 1", nameOrID, nameOrID)
	if errors.Is(err, sql.ErrNoRows) {
		return Selection{}, errors.Wrapf(ErrNotFound, "%s", nameOrID)
	}
	if err != nil {
		return Selection{}, errors.Wrapf(err, "failed to get selection %s", nameOrID)
	}
	return row.toSelection(), nil
}

// List returns every saved selection, most recently updated first
func (s *Store) List(ctx context.Context) ([]Selection, error) {
	var rows []dbSelection
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM selections ORDER BY updated_at DESC, name"); err != nil {
		return nil, errors.Wrap(err, "failed to list selections")
	}
	out := make([]Selection, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSelection())
	}
	return out, nil
}

// Delete removes a selection by name or ID
func (s *Store) Delete(ctx context.Context, nameOrID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM selections WHERE name = ? OR id = ?", nameOrID, nameOrID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete selection %s", nameOrID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s", nameOrID)
	}
	return nil
}
