package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/repository"
)

const placeholderStudentName = "Student"

type Profile struct {
	Name  string
	Email string
}

// IdentityProvider resolves display data for a user id.
type IdentityProvider interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

type userDirectory struct {
	users repository.UserRepository
}

// NewUserDirectory serves profiles from the users table kept in sync by the auth middleware.
func NewUserDirectory(users repository.UserRepository) IdentityProvider {
	return &userDirectory{users: users}
}

func (d *userDirectory) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrStudentNotFound)
	}
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = placeholderStudentName
	}
	return &Profile{Name: name, Email: user.Email}, nil
}

func placeholderProfile() Profile {
	return Profile{Name: placeholderStudentName}
}
