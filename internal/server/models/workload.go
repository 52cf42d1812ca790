package models

import "time"

// Status is the lifecycle state of a workload.
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusOnHold     Status = "On Hold"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// WorkloadTypes are the accepted workload categories.
var WorkloadTypes = []string{"Rutin", "Proyek", "Tambahan", "Lainnya"}

// Workload is a unit of work owned by one user. UserNama and Username are
// read-only columns joined from the owner.
type Workload struct {
	ID          int64     `bun:"id" json:"id"`
	UserID      int64     `bun:"user_id" json:"user_id"`
	Nama        string    `bun:"nama" json:"nama"`
	Type        string    `bun:"type" json:"type"`
	Deskripsi   *string   `bun:"deskripsi" json:"deskripsi"`
	Status      Status    `bun:"status" json:"status"`
	TglDiterima *Date     `bun:"tgl_diterima" json:"tgl_diterima"`
	Fungsi      *string   `bun:"fungsi" json:"fungsi"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at" json:"updated_at"`
	UserNama    string    `bun:"user_nama" json:"user_nama,omitempty"`
	Username    string    `bun:"username" json:"username,omitempty"`
}

// WorkloadPatch is a partial update. Nil fields are left untouched.
type WorkloadPatch struct {
	UserID      *int64  `json:"user_id,omitempty"`
	Nama        *string `json:"nama,omitempty"`
	Type        *string `json:"type,omitempty"`
	Deskripsi   *string `json:"deskripsi,omitempty"`
	Status      *Status `json:"status,omitempty"`
	TglDiterima *Date   `json:"tgl_diterima,omitempty"`
	Fungsi      *string `json:"fungsi,omitempty"`
}

// WorkloadFilter narrows a workload listing. Zero values mean "any".
type WorkloadFilter struct {
	UserID int64
	Status Status
	Type   string
	Search string
	Page   int
	Limit  int
}

// WorkloadOptions are the distinct values present in the caller's scope.
type WorkloadOptions struct {
	Types    []string `json:"types"`
	Statuses []string `json:"statuses"`
	Fungsi   []string `json:"fungsi"`
}

// StatusCount is one row of the per-status statistics.
type StatusCount struct {
	Status Status `bun:"status" json:"status"`
	Count  int64  `bun:"count" json:"count"`
}

// WorkloadStatistics summarises the caller's workloads.
type WorkloadStatistics struct {
	Total    int64         `json:"total"`
	ByStatus []StatusCount `json:"by_status"`
}

// Page describes a paginated result.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"pages"`
}

// NewPage computes the page metadata for total rows.
func NewPage(page, limit int, total int64) Page {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
