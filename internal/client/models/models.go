// Package models defines the shapes the CLI reads from the workload tracker
// REST API.
package models

import (
	"net/url"
	"strconv"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Nama      string    `json:"nama"`
	NIP       *string   `json:"nip"`
	Golongan  *string   `json:"golongan"`
	Jabatan   *string   `json:"jabatan"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the account carries the Admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "Admin"
}

type Workload struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Nama        string    `json:"nama"`
	Type        string    `json:"type"`
	Deskripsi   *string   `json:"deskripsi"`
	Status      string    `json:"status"`
	TglDiterima *string   `json:"tgl_diterima"`
	Fungsi      *string   `json:"fungsi"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserNama    string    `json:"user_nama,omitempty"`
	Username    string    `json:"username,omitempty"`
}

// Page is the pagination block returned with every list.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"pages"`
}

type WorkloadList struct {
	Workloads  []Workload `json:"workloads"`
	Pagination Page       `json:"pagination"`
}

// Session is what login and refresh return.
type Session struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// WorkloadQuery narrows GET /api/workload. Zero values are omitted.
type WorkloadQuery struct {
	Page   int
	Limit  int
	Status string
	Type   string
	Search string
	UserID int64
}

// Values renders q as URL query parameters.
func (q WorkloadQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.UserID > 0 {
		v.Set("user_id", strconv.FormatInt(q.UserID, 10))
	}
	return v
}
