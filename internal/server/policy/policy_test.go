package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

var (
	admin = auth.Identity{ID: 1, Username: "admin", Role: models.RoleAdmin}
	jdoe  = auth.Identity{ID: 2, Username: "jdoe", Role: models.RoleUser}
)

func ptr[T any](v T) *T { return &v }

func TestCanCreateWorkload(t *testing.T) {
	assert.Equal(t, int64(2), CanCreateWorkload(jdoe, 0))
	assert.Equal(t, int64(2), CanCreateWorkload(jdoe, 1), "non-admin cannot create for others")
	assert.Equal(t, int64(1), CanCreateWorkload(admin, 0))
	assert.Equal(t, int64(2), CanCreateWorkload(admin, 2))
}

func TestWorkloadAccess(t *testing.T) {
	own := &models.Workload{ID: 10, UserID: jdoe.ID}
	foreign := &models.Workload{ID: 11, UserID: admin.ID}

	tests := []struct {
		name  string
		id    auth.Identity
		w     *models.Workload
		allow bool
	}{
		{"owner", jdoe, own, true},
		{"non-owner", jdoe, foreign, false},
		{"admin on foreign", admin, own, true},
		{"admin on own", admin, foreign, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, check := range []func(auth.Identity, *models.Workload) error{CanReadWorkload, CanModifyWorkload} {
				err := check(tt.id, tt.w)
				if tt.allow {
					assert.NoError(t, err)
					continue
				}
				assert.ErrorIs(t, err, common.ErrForbidden)
				var pe *common.PolicyError
				assert.True(t, errors.As(err, &pe))
			}
		})
	}
}

func TestWorkloadPatchFor(t *testing.T) {
	p := models.WorkloadPatch{UserID: ptr(int64(1)), Nama: ptr("x")}

	got := WorkloadPatchFor(jdoe, p)
	assert.Nil(t, got.UserID)
	assert.Equal(t, "x", *got.Nama)

	got = WorkloadPatchFor(admin, p)
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(1), *got.UserID)
}

func TestScopeWorkloadFilter(t *testing.T) {
	f := models.WorkloadFilter{UserID: 1, Status: models.StatusNew}

	assert.Equal(t, int64(2), ScopeWorkloadFilter(jdoe, f).UserID)
	assert.Equal(t, models.StatusNew, ScopeWorkloadFilter(jdoe, f).Status)
	assert.Equal(t, int64(1), ScopeWorkloadFilter(admin, f).UserID)
	assert.Equal(t, int64(0), ScopeWorkloadFilter(admin, models.WorkloadFilter{}).UserID)

	assert.Equal(t, int64(0), ScopeOwner(admin))
	assert.Equal(t, int64(2), ScopeOwner(jdoe))
}

func TestCanReadUser(t *testing.T) {
	assert.NoError(t, CanReadUser(jdoe, 2))
	assert.NoError(t, CanReadUser(admin, 2))
	assert.ErrorIs(t, CanReadUser(jdoe, 1), common.ErrForbidden)
	assert.ErrorIs(t, CanReadUser(jdoe, 999), common.ErrForbidden, "same answer for ids that do not exist")

	assert.NoError(t, CanListUsers(admin))
	assert.ErrorIs(t, CanListUsers(jdoe), common.ErrForbidden)
}

func TestUserPatchFor(t *testing.T) {
	patch := models.UserPatch{
		Username: ptr("root"),
		Password: ptr("secret1"),
		Role:     ptr(models.RoleAdmin),
		Nama:     ptr("John Doe"),
		NIP:      ptr("1987"),
		Golongan: ptr("III/a"),
		Jabatan:  ptr("Analyst"),
	}

	t.Run("self non-admin keeps only profile", func(t *testing.T) {
		got, err := UserPatchFor(jdoe, jdoe.ID, patch)
		require.NoError(t, err)
		assert.Equal(t, models.UserPatch{
			Nama:     patch.Nama,
			NIP:      patch.NIP,
			Golongan: patch.Golongan,
			Jabatan:  patch.Jabatan,
		}, got)
	})

	t.Run("non-admin on other user", func(t *testing.T) {
		_, err := UserPatchFor(jdoe, admin.ID, patch)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("admin keeps everything", func(t *testing.T) {
		got, err := UserPatchFor(admin, jdoe.ID, patch)
		require.NoError(t, err)
		assert.Equal(t, patch, got)
	})
}

func TestCanCreateUser(t *testing.T) {
	assert.NoError(t, CanCreateUser(admin))
	assert.ErrorIs(t, CanCreateUser(jdoe), common.ErrForbidden)
}

func TestCanDeleteUser(t *testing.T) {
	err := CanDeleteUser(admin, admin.ID, 0, true)
	require.ErrorIs(t, err, common.ErrForbidden)
	assert.Equal(t, "cannot delete your own account", err.Error())

	assert.ErrorIs(t, CanDeleteUser(jdoe, 3, 0, false), common.ErrForbidden)
	assert.ErrorIs(t, CanDeleteUser(admin, jdoe.ID, 3, false), common.ErrConflict)
	assert.NoError(t, CanDeleteUser(admin, jdoe.ID, 3, true))
	assert.NoError(t, CanDeleteUser(admin, jdoe.ID, 0, false))
}

func TestConceal(t *testing.T) {
	forbidden := CanReadWorkload(jdoe, &models.Workload{UserID: admin.ID})

	assert.ErrorIs(t, Conceal(forbidden, false), common.ErrForbidden)

	hidden := Conceal(forbidden, true)
	assert.ErrorIs(t, hidden, common.ErrNotFound)
	assert.NotErrorIs(t, hidden, common.ErrForbidden)

	assert.Nil(t, Conceal(nil, true))
	assert.ErrorIs(t, Conceal(common.ErrConflict, true), common.ErrConflict)
}
