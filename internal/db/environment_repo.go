package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"trackerdeploy/internal/errors"
)

// EnvironmentStore defines the registry operations used by the CLI and the API
type EnvironmentStore interface {
	Create(ctx context.Context, env *Environment) error
	GetByName(ctx context.Context, name string) (*Environment, error)
	List(ctx context.Context) ([]*Environment, error)
	ListPage(ctx context.Context, opts PaginationOptions) ([]*Environment, int, error)
	UpdateState(ctx context.Context, name string, update StateUpdate) error
	Delete(ctx context.Context, name string) error
}

// StateUpdate records the outcome of a render
type StateUpdate struct {
	State       EnvironmentState
	Services    ServiceList
	ComposePath string
	LastError   string
}

// EnvironmentRepository handles database operations for environments
type EnvironmentRepository struct {
	db *DB
}

var _ EnvironmentStore = (*EnvironmentRepository)(nil)

// NewEnvironmentRepository creates a new environment repository
func NewEnvironmentRepository(db *DB) *EnvironmentRepository {
	return &EnvironmentRepository{db: db}
}

const environmentColumns = `id, name, config_path, state, services, compose_path, last_error, created_at, updated_at`

// Create registers a new environment. ID, state and timestamps are filled
// in when empty.
func (r *EnvironmentRepository) Create(ctx context.Context, env *Environment) error {
	if env.ID == "" {
		env.ID = uuid.New().String()
	}
	if env.State == "" {
		env.State = StateCreated
	}
	if !env.State.Valid() {
		return errors.InvalidInput(string(env.State), "created, rendered or render_failed")
	}
	now := time.Now().UTC()
	env.CreatedAt = now
	env.UpdatedAt = now

	query := `
		INSERT INTO environments (` + environmentColumns + `)
		VALUES (:id, :name, :config_path, :state, :services, :compose_path, :last_error, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, env); err != nil {
		if isUniqueViolation(err) {
			return errors.EnvironmentExists(env.Name)
		}
		return errors.DatabaseQueryError("insert environment", err)
	}

	return nil
}

// GetByName returns an environment by its unique name
func (r *EnvironmentRepository) GetByName(ctx context.Context, name string) (*Environment, error) {
	query := `SELECT ` + environmentColumns + ` FROM environments WHERE name = ?`

	env := &Environment{}
	if err := r.db.GetContext(ctx, env, query, name); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.EnvironmentNotFound(name)
		}
		return nil, errors.DatabaseQueryError("select environment", err)
	}

	return env, nil
}

// List returns all environments ordered by name
func (r *EnvironmentRepository) List(ctx context.Context) ([]*Environment, error) {
	query := `SELECT ` + environmentColumns + ` FROM environments ORDER BY name ASC`

	var envs []*Environment
	if err := r.db.SelectContext(ctx, &envs, query); err != nil {
		return nil, errors.DatabaseQueryError("list environments", err)
	}

	return envs, nil
}

// ListPage returns one page of environments and the total count
func (r *EnvironmentRepository) ListPage(ctx context.Context, opts PaginationOptions) ([]*Environment, int, error) {
	if err := opts.Validate(); err != nil {
		return nil, 0, errors.Wrap(errors.ErrInvalidInput, "Invalid pagination", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM environments`); err != nil {
		return nil, 0, errors.DatabaseQueryError("count environments", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM environments %s %s`,
		environmentColumns, opts.BuildOrderClause(), opts.BuildLimitClause())

	var envs []*Environment
	if err := r.db.SelectContext(ctx, &envs, query); err != nil {
		return nil, 0, errors.DatabaseQueryError("list environments", err)
	}

	return envs, total, nil
}

// UpdateState stores the result of the latest render
func (r *EnvironmentRepository) UpdateState(ctx context.Context, name string, update StateUpdate) error {
	if !update.State.Valid() {
		return errors.InvalidInput(string(update.State), "created, rendered or render_failed")
	}

	query := `
		UPDATE environments
		SET state = ?, services = ?, compose_path = ?, last_error = ?
		WHERE name = ?
	`
	result, err := r.db.ExecContext(ctx, query, update.State, update.Services, update.ComposePath, update.LastError, name)
	if err != nil {
		return errors.DatabaseQueryError("update environment", err)
	}

	return requireAffected(result, name)
}

// Delete removes an environment from the registry
func (r *EnvironmentRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM environments WHERE name = ?`, name)
	if err != nil {
		return errors.DatabaseQueryError("delete environment", err)
	}

	return requireAffected(result, name)
}

func requireAffected(result sql.Result, name string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseQueryError("rows affected", err)
	}
	if rows == 0 {
		return errors.EnvironmentNotFound(name)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return stderrors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
