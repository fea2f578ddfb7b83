package service

import (
	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) IsStaff() bool { return a.Role == RoleTeacher || a.Role == RoleAdmin }

// CanManage decides whether actor may modify classroom or anything nested in it.
// Owners always can, admins always can, and any staff member can manage the default classroom.
func CanManage(actor Actor, classroom *model.Classroom) bool {
	if classroom == nil {
		return false
	}
	switch {
	case actor.IsAdmin():
		return true
	case classroom.IsDefault && actor.IsStaff():
		return true
	case actor.UserID != uuid.Nil && classroom.OwnerID == actor.UserID:
		return true
	}
	return false
}
