package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of account types. Every visibility predicate in the
// repository switches exhaustively over it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

func (r Role) CanRecord() bool {
	return r == RoleAdmin || r == RoleTeacher
}
