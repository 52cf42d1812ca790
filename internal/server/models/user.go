// Package models holds the records persisted by the workload tracker and the
// value types shared by its layers.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is the authorization role of an identity.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an identity. PasswordHash is never serialized.
type User struct {
	ID           int64     `bun:"id" json:"id"`
	Username     string    `bun:"username" json:"username"`
	PasswordHash string    `bun:"password" json:"-"`
	Nama         string    `bun:"nama" json:"nama"`
	NIP          *string   `bun:"nip" json:"nip"`
	Golongan     *string   `bun:"golongan" json:"golongan"`
	Jabatan      *string   `bun:"jabatan" json:"jabatan"`
	Role         Role      `bun:"role" json:"role"`
	CreatedAt    time.Time `bun:"created_at" json:"created_at"`
}

// IsAdmin is shorthand for u.Role == RoleAdmin.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserPatch is a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Nama     *string `json:"nama,omitempty"`
	NIP      *string `json:"nip,omitempty"`
	Golongan *string `json:"golongan,omitempty"`
	Jabatan  *string `json:"jabatan,omitempty"`
	Role     *Role   `json:"role,omitempty"`
}

// BcryptCost is the work factor for stored password hashes.
var BcryptCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of password. The salt is part of the
// hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
