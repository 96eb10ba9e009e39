package repository

import (
	"fmt"
	"strings"

	"github.com/Dmambo/edutrack/internal/model"
)

// scope accumulates WHERE conditions and their positional args. Conditions
// come from two places and are always intersected: the caller's role and the
// caller-supplied filters.
type scope struct {
	conds []string
	args  []any
}

// where appends a condition. expr must contain a single $%d placeholder that
// is rewritten to the arg's position.
func (s *scope) where(expr string, arg any) {
	s.args = append(s.args, arg)
	s.conds = append(s.conds, fmt.Sprintf(expr, len(s.args)))
}

func (s *scope) clause() string {
	if len(s.conds) == 0 {
		return ""
	}
	return " AND " + strings.Join(s.conds, " AND ")
}

func errUnknownRole(role model.Role) error {
	return fmt.Errorf("unknown role %q", role)
}

// Role predicates. One function per resource, exhaustively switched, so a new
// role fails compilation review here rather than silently widening access.

func scopeAttendance(caller model.User, sc *scope) error {
	switch caller.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher:
		sc.where("c.teacher_id = $%d", caller.ID)
		return nil
	case model.RoleStudent:
		sc.where("a.student_id = $%d", caller.ID)
		return nil
	}
	return errUnknownRole(caller.Role)
}

func scopePerformance(caller model.User, sc *scope) error {
	switch caller.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher:
		sc.where("c.teacher_id = $%d", caller.ID)
		return nil
	case model.RoleStudent:
		sc.where("p.student_id = $%d", caller.ID)
		return nil
	}
	return errUnknownRole(caller.Role)
}

func scopeEnrollments(caller model.User, sc *scope) error {
	switch caller.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher:
		sc.where("c.teacher_id = $%d", caller.ID)
		return nil
	case model.RoleStudent:
		sc.where("e.student_id = $%d", caller.ID)
		return nil
	}
	return errUnknownRole(caller.Role)
}

func scopeCorrections(caller model.User, sc *scope) error {
	switch caller.Role {
	case model.RoleAdmin, model.RoleTeacher:
		return nil
	case model.RoleStudent:
		sc.where("r.student_id = $%d", caller.ID)
		return nil
	}
	return errUnknownRole(caller.Role)
}
