package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database/dbtest"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

func ptr[T any](v T) *T { return &v }

func newRepo(t *testing.T) (*SQLRepository, *database.Database) {
	t.Helper()
	db := dbtest.New(t)
	return NewSQLRepository(db), db
}

func createUser(t *testing.T, r *SQLRepository, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := models.HashPassword("secret123")
	require.NoError(t, err)
	u, err := r.Create(context.Background(), &models.User{
		Username:     username,
		PasswordHash: hash,
		Nama:         "Nama " + username,
		NIP:          ptr("198701012010011001"),
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func TestCreate_And_GetByID(t *testing.T) {
	r, _ := newRepo(t)

	u := createUser(t, r, "jdoe", models.RoleUser)
	assert.Positive(t, u.ID)
	assert.Equal(t, "jdoe", u.Username)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Empty(t, u.PasswordHash, "public reads never carry the hash")
	assert.False(t, u.CreatedAt.IsZero())
	require.NotNil(t, u.NIP)
	assert.Nil(t, u.Jabatan)

	got, err := r.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
}

func TestCreate_DefaultsRoleToUser(t *testing.T) {
	r, _ := newRepo(t)
	u := createUser(t, r, "norole", "")
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestCreate_DuplicateUsernameIsConflict(t *testing.T) {
	r, _ := newRepo(t)
	createUser(t, r, "admin", models.RoleAdmin)

	_, err := r.Create(context.Background(), &models.User{Username: "admin", PasswordHash: "x", Nama: "Other"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGetByUsername_IncludesHash(t *testing.T) {
	r, _ := newRepo(t)
	createUser(t, r, "admin", models.RoleAdmin)

	u, err := r.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, models.CheckPassword(u.PasswordHash, "secret123"))

	_, err = r.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	hash, err := r.GetPasswordHash(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, hash)
}

func TestGetByID_NotFound(t *testing.T) {
	r, _ := newRepo(t)
	_, err := r.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestList_Paginates(t *testing.T) {
	r, _ := newRepo(t)
	for _, name := range []string{"user_a", "user_b", "user_c"} {
		createUser(t, r, name, models.RoleUser)
	}

	page1, total, err := r.List(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)

	page2, _, err := r.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.NotContains(t, []string{page1[0].Username, page1[1].Username}, page2[0].Username)
}

func TestUpdate(t *testing.T) {
	r, _ := newRepo(t)
	u := createUser(t, r, "jdoe", models.RoleUser)
	ctx := context.Background()

	err := r.Update(ctx, u.ID, models.UserPatch{
		Nama:    ptr("John Doe"),
		Jabatan: ptr("Analis"),
		NIP:     ptr(""),
		Role:    ptr(models.RoleAdmin),
	})
	require.NoError(t, err)

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.Nama)
	assert.Equal(t, "Analis", *got.Jabatan)
	assert.Nil(t, got.NIP, "blank optional attributes are stored as NULL")
	assert.Equal(t, models.RoleAdmin, got.Role)

	require.NoError(t, r.Update(ctx, u.ID, models.UserPatch{Nama: ptr("John Doe")}), "no-op update is not a miss")
	require.NoError(t, r.Update(ctx, u.ID, models.UserPatch{}))

	assert.ErrorIs(t, r.Update(ctx, 999, models.UserPatch{Nama: ptr("x")}), common.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, 999, models.UserPatch{}), common.ErrNotFound)
}

func TestUpdate_UsernameConflict(t *testing.T) {
	r, _ := newRepo(t)
	createUser(t, r, "admin", models.RoleAdmin)
	u := createUser(t, r, "jdoe", models.RoleUser)

	err := r.Update(context.Background(), u.ID, models.UserPatch{Username: ptr("admin")})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUpdatePassword(t *testing.T) {
	r, _ := newRepo(t)
	u := createUser(t, r, "jdoe", models.RoleUser)

	hash, err := models.HashPassword("newpass1")
	require.NoError(t, err)
	require.NoError(t, r.UpdatePassword(context.Background(), u.ID, hash))

	got, err := r.GetByUsername(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.True(t, models.CheckPassword(got.PasswordHash, "newpass1"))

	assert.ErrorIs(t, r.UpdatePassword(context.Background(), 999, hash), common.ErrNotFound)
}

func TestDelete_And_CountWorkloads(t *testing.T) {
	r, db := newRepo(t)
	ctx := context.Background()
	u := createUser(t, r, "jdoe", models.RoleUser)

	_, err := db.Execute(ctx, `INSERT INTO workloads (user_id, nama, type) VALUES (?, ?, ?)`, u.ID, "w1", "Rutin")
	require.NoError(t, err)

	n, err := r.CountWorkloads(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, r.Delete(ctx, u.ID))
	assert.ErrorIs(t, r.Delete(ctx, u.ID), common.ErrNotFound)

	total, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

type failingQuerier struct{ err error }

func (f failingQuerier) Execute(context.Context, string, ...any) (database.Result, error) {
	return database.Result{}, f.err
}

func (f failingQuerier) Query(context.Context, any, string, ...any) error { return f.err }

func (f failingQuerier) GetOne(context.Context, any, string, ...any) (bool, error) {
	return false, f.err
}

func TestRepository_WrapsDBErrors(t *testing.T) {
	down := errors.New("db down")
	r := NewSQLRepository(failingQuerier{err: down})
	ctx := context.Background()

	_, err := r.GetByID(ctx, 1)
	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "db error")

	_, _, err = r.List(ctx, 1, 10)
	assert.ErrorIs(t, err, down)

	assert.ErrorIs(t, r.Delete(ctx, 1), down)
}
