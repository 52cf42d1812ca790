// Package users persists identities in the users table of either engine.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

const publicColumns = `id, username, nama, nip, golongan, jabatan, role, created_at`

type SQLRepository struct {
	db database.Querier
}

func NewSQLRepository(db database.Querier) *SQLRepository {
	return &SQLRepository{db: db}
}

var _ Repository = (*SQLRepository)(nil)

// Create inserts user, whose PasswordHash must already be set, and returns
// the stored record without the hash.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	res, err := r.db.Execute(ctx,
		`INSERT INTO users (username, password, nama, nip, golongan, jabatan, role)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.Nama, user.NIP, user.Golongan, user.Jabatan, string(role))
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.Conflict(fmt.Sprintf("username %q already exists", user.Username))
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.GetByID(ctx, res.LastInsertID)
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	found, err := r.db.GetOne(ctx, u, `SELECT `+publicColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !found {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	found, err := r.db.GetOne(ctx, u,
		`SELECT `+publicColumns+`, password FROM users WHERE username = ?`, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !found {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (r *SQLRepository) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	found, err := r.db.GetOne(ctx, &hash, `SELECT password FROM users WHERE id = ?`, id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	if !found {
		return "", common.ErrNotFound
	}
	return hash, nil
}

// List returns one page of users ordered by creation, newest first, and the
// total number of users.
func (r *SQLRepository) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	err = r.db.Query(ctx, &users,
		`SELECT `+publicColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return users, total, nil
}

// Update writes the non-nil fields of patch. Password is ignored here, see
// UpdatePassword.
func (r *SQLRepository) Update(ctx context.Context, id int64, patch models.UserPatch) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Nama != nil {
		add("nama", *patch.Nama)
	}
	if patch.NIP != nil {
		add("nip", nullable(*patch.NIP))
	}
	if patch.Golongan != nil {
		add("golongan", nullable(*patch.Golongan))
	}
	if patch.Jabatan != nil {
		add("jabatan", nullable(*patch.Jabatan))
	}
	if patch.Role != nil {
		add("role", string(*patch.Role))
	}

	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	args = append(args, id)
	res, err := r.db.Execute(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if errors.Is(err, common.ErrConflict) && patch.Username != nil {
			return common.Conflict(fmt.Sprintf("username %q already exists", *patch.Username))
		}
		return fmt.Errorf("db error: %w", err)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.Execute(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Execute(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) CountWorkloads(ctx context.Context, id int64) (int64, error) {
	var n int64
	if _, err := r.db.GetOne(ctx, &n, `SELECT COUNT(*) FROM workloads WHERE user_id = ?`, id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if _, err := r.db.GetOne(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// nullable stores empty optional attributes as NULL.
func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
