package users

import (
	"context"

	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

// Repository is the credential store. Read paths other than GetByUsername
// never load the password hash.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername loads the record including PasswordHash, for login.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetPasswordHash(ctx context.Context, id int64) (string, error)

	List(ctx context.Context, page, limit int) ([]models.User, int64, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
	CountWorkloads(ctx context.Context, id int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}
