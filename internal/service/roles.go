package service

import (
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

// requireRole пропускает только указанную роль
func requireRole(caller model.Caller, role model.Role) error {
	switch caller.Role {
	case model.RoleStudent, model.RoleCounselor, model.RoleAdmin:
		if caller.Role == role {
			return nil
		}
		return fmt.Errorf("%w: %s access required", ErrForbidden, role)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrForbidden, caller.Role)
	}
}
