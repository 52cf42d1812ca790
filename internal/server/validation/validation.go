// Package validation checks request payloads field by field and reports every
// problem at once as a *common.ValidationError.
package validation

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// Golongan lists the civil service grades accepted in a profile.
var Golongan = []string{
	"I/a", "I/b", "I/c", "I/d",
	"II/a", "II/b", "II/c", "II/d",
	"III/a", "III/b", "III/c", "III/d",
	"IV/a", "IV/b", "IV/c", "IV/d", "IV/e",
}

const (
	minUsername  = 3
	minPassword  = 6
	maxPassword  = 72 // bcrypt input limit, in bytes
	minNama      = 2
	maxNIP       = 18
	maxJabatan   = 100
	minDeskripsi = 10
	minFungsi    = 2
)

func length(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func checkUsername(v *common.ValidationError, s string) {
	switch {
	case strings.TrimSpace(s) == "":
		v.Add("username", "Username is required")
	case length(s) < minUsername:
		v.Add("username", "Username must be at least 3 characters long")
	case !usernamePattern.MatchString(s):
		v.Add("username", "Username can only contain letters, numbers, underscores, and dots")
	}
}

func checkPassword(v *common.ValidationError, field, s string) {
	if utf8.RuneCountInString(s) < minPassword {
		v.Add(field, "Password must be at least 6 characters long")
	}
	if len(s) > maxPassword {
		v.Add(field, "Password must be at most 72 bytes")
	}
}

func checkProfile(v *common.ValidationError, p models.UserPatch) {
	if p.Nama != nil && length(*p.Nama) < minNama {
		v.Add("nama", "Name must be at least 2 characters long")
	}
	if p.NIP != nil && length(*p.NIP) > maxNIP {
		v.Add("nip", "NIP must be maximum 18 characters long")
	}
	if p.Golongan != nil && *p.Golongan != "" && !slices.Contains(Golongan, *p.Golongan) {
		v.Add("golongan", "Invalid golongan. Must be one of: "+strings.Join(Golongan, ", "))
	}
	if p.Jabatan != nil && length(*p.Jabatan) > maxJabatan {
		v.Add("jabatan", "Jabatan must be between 0 and 100 characters long")
	}
	if p.Role != nil && !p.Role.Valid() {
		v.Add("role", "Role must be either Admin or User")
	}
}

// NewUser validates a user creation request: username, password and nama are
// required.
func NewUser(p models.UserPatch) error {
	v := common.NewValidationError()

	if p.Username == nil {
		v.Add("username", "Username is required")
	} else {
		checkUsername(v, *p.Username)
	}
	if p.Password == nil || *p.Password == "" {
		v.Add("password", "Password is required")
	} else {
		checkPassword(v, "password", *p.Password)
	}
	if p.Nama == nil || strings.TrimSpace(*p.Nama) == "" {
		v.Add("nama", "Name is required")
	}
	checkProfile(v, p)

	return v.OrNil()
}

// UserUpdate validates the fields present in a partial update.
func UserUpdate(p models.UserPatch) error {
	v := common.NewValidationError()

	if p.Username != nil {
		checkUsername(v, *p.Username)
	}
	if p.Password != nil {
		checkPassword(v, "password", *p.Password)
	}
	checkProfile(v, p)

	return v.OrNil()
}

// PasswordChange validates a change of the caller's own password.
func PasswordChange(current, next string) error {
	v := common.NewValidationError()
	if current == "" {
		v.Add("currentPassword", "Current password is required")
	}
	if next == "" {
		v.Add("newPassword", "New password is required")
	} else {
		checkPassword(v, "newPassword", next)
	}
	return v.OrNil()
}

// WorkloadInput is a workload payload as received. Dates stay strings until
// validated so a bad date is reported per field.
type WorkloadInput struct {
	UserID      *int64  `json:"user_id"`
	Nama        *string `json:"nama"`
	Type        *string `json:"type"`
	Deskripsi   *string `json:"deskripsi"`
	Status      *string `json:"status"`
	TglDiterima *string `json:"tgl_diterima"`
	Fungsi      *string `json:"fungsi"`
}

// NewWorkload validates a creation payload. nama and type are required.
func NewWorkload(in WorkloadInput) (models.WorkloadPatch, error) {
	v := common.NewValidationError()
	if in.Nama == nil || strings.TrimSpace(*in.Nama) == "" {
		v.Add("nama", "Workload name is required")
	}
	if in.Type == nil || *in.Type == "" {
		v.Add("type", "Type is required")
	}
	patch := checkWorkload(v, in)
	return patch, v.OrNil()
}

// WorkloadUpdate validates the fields present in a partial update.
func WorkloadUpdate(in WorkloadInput) (models.WorkloadPatch, error) {
	v := common.NewValidationError()
	patch := checkWorkload(v, in)
	return patch, v.OrNil()
}

func checkWorkload(v *common.ValidationError, in WorkloadInput) models.WorkloadPatch {
	patch := models.WorkloadPatch{
		UserID:    in.UserID,
		Nama:      in.Nama,
		Type:      in.Type,
		Deskripsi: in.Deskripsi,
		Fungsi:    in.Fungsi,
	}

	if in.Nama != nil && length(*in.Nama) < minNama {
		v.Add("nama", "Workload name must be at least 2 characters long")
	}
	if in.Type != nil && *in.Type != "" && !slices.Contains(models.WorkloadTypes, *in.Type) {
		v.Add("type", "Type must be "+orList(models.WorkloadTypes))
	}
	if in.Deskripsi != nil && *in.Deskripsi != "" && length(*in.Deskripsi) < minDeskripsi {
		v.Add("deskripsi", "Description must be at least 10 characters long")
	}
	if in.Status != nil {
		s := models.Status(*in.Status)
		if !s.Valid() {
			names := make([]string, len(models.Statuses))
			for i, st := range models.Statuses {
				names[i] = string(st)
			}
			v.Add("status", "Status must be "+orList(names))
		}
		patch.Status = &s
	}
	if in.TglDiterima != nil && *in.TglDiterima != "" {
		d, err := models.ParseDate(*in.TglDiterima)
		if err != nil {
			v.Add("tgl_diterima", "Date must be a valid date (YYYY-MM-DD)")
		} else {
			patch.TglDiterima = &d
		}
	}
	if in.Fungsi != nil && *in.Fungsi != "" && length(*in.Fungsi) < minFungsi {
		v.Add("fungsi", "Fungsi must be at least 2 characters long")
	}
	return patch
}

func orList(items []string) string {
	if len(items) < 2 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}
