// Package policy holds the ownership and role rules. Every function is pure:
// callers load the records, policy decides.
package policy

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

// CanCreateWorkload returns the owner a new workload gets. Admins may create
// on behalf of someone else; everybody else always owns what they create.
func CanCreateWorkload(id auth.Identity, requestedOwner int64) int64 {
	if id.IsAdmin() && requestedOwner > 0 {
		return requestedOwner
	}
	return id.ID
}

func CanReadWorkload(id auth.Identity, w *models.Workload) error {
	if id.IsAdmin() || w.UserID == id.ID {
		return nil
	}
	return common.Forbidden("you can only access your own workloads")
}

func CanModifyWorkload(id auth.Identity, w *models.Workload) error {
	if id.IsAdmin() || w.UserID == id.ID {
		return nil
	}
	return common.Forbidden("you can only modify your own workloads")
}

// WorkloadPatchFor drops an ownership change requested by a non-admin.
func WorkloadPatchFor(id auth.Identity, patch models.WorkloadPatch) models.WorkloadPatch {
	if !id.IsAdmin() {
		patch.UserID = nil
	}
	return patch
}

// ScopeWorkloadFilter pins a non-admin's listing to their own workloads.
func ScopeWorkloadFilter(id auth.Identity, f models.WorkloadFilter) models.WorkloadFilter {
	if !id.IsAdmin() {
		f.UserID = id.ID
	}
	return f
}

// ScopeOwner is the owner id used for per-user aggregates: 0 (everyone) for
// admins, self otherwise.
func ScopeOwner(id auth.Identity) int64 {
	if id.IsAdmin() {
		return 0
	}
	return id.ID
}

func CanListUsers(id auth.Identity) error {
	if id.IsAdmin() {
		return nil
	}
	return common.Forbidden("admin access required")
}

// CanReadUser is checked before the target is loaded, so a non-admin learns
// nothing about ids other than their own.
func CanReadUser(id auth.Identity, targetID int64) error {
	if id.IsAdmin() || id.ID == targetID {
		return nil
	}
	return common.Forbidden("you can only access your own profile")
}

// UserPatchFor narrows patch to what id may change on targetID. A non-admin
// editing themselves keeps only profile attributes; role, username and
// password changes are dropped silently.
func UserPatchFor(id auth.Identity, targetID int64, patch models.UserPatch) (models.UserPatch, error) {
	if id.IsAdmin() {
		return patch, nil
	}
	if id.ID != targetID {
		return models.UserPatch{}, common.Forbidden("you can only update your own profile")
	}
	return models.UserPatch{
		Nama:     patch.Nama,
		NIP:      patch.NIP,
		Golongan: patch.Golongan,
		Jabatan:  patch.Jabatan,
	}, nil
}

// CanCreateUser allows admins to create users of either role. The role value
// itself is checked by validation.
func CanCreateUser(id auth.Identity) error {
	if !id.IsAdmin() {
		return common.Forbidden("admin access required")
	}
	return nil
}

func CanDeleteUser(id auth.Identity, targetID int64, ownedWorkloads int64, force bool) error {
	if id.ID == targetID {
		return common.Forbidden("cannot delete your own account")
	}
	if !id.IsAdmin() {
		return common.Forbidden("admin access required")
	}
	if ownedWorkloads > 0 && !force {
		return common.Conflict(fmt.Sprintf(
			"cannot delete user with %d existing workload(s); use ?force=true to override", ownedWorkloads))
	}
	return nil
}

// Conceal turns a Forbidden decision about a foreign workload into NotFound
// when hide is set, so callers cannot discover existing ids.
func Conceal(err error, hide bool) error {
	if hide && errors.Is(err, common.ErrForbidden) {
		return common.NotFound("workload not found")
	}
	return err
}
