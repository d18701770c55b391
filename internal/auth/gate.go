package auth

import (
	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// Operation enumerates protected operation classes.
type Operation int

const (
	OpManageUsers Operation = iota + 1
	OpManageSettings
	OpManageDeals
	OpViewDeals
	OpTrackDealActivity
	OpManageSubscribers
	OpViewAuditLog
)

var operationNames = map[Operation]string{
	OpManageUsers:       "manage-users",
	OpManageSettings:    "manage-settings",
	OpManageDeals:       "manage-deals-write",
	OpViewDeals:         "view-deals",
	OpTrackDealActivity: "track-deal-activity",
	OpManageSubscribers: "manage-subscribers",
	OpViewAuditLog:      "view-audit-log",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown"
}

var (
	ownerOnly    = roleSet(domain.RoleOwner)
	ownerOrAdmin = roleSet(domain.RoleOwner, domain.RoleAdmin)
	anyRole      = roleSet(domain.Roles...)
)

// permissions is the single role table consulted by every protected route.
var permissions = map[Operation]map[domain.Role]struct{}{
	OpManageUsers:       ownerOnly,
	OpManageSettings:    ownerOnly,
	OpManageDeals:       ownerOrAdmin,
	OpViewDeals:         anyRole,
	OpTrackDealActivity: anyRole,
	OpManageSubscribers: ownerOrAdmin,
	OpViewAuditLog:      ownerOrAdmin,
}

func roleSet(roles ...domain.Role) map[domain.Role]struct{} {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Authorize reports whether role may perform op. Unknown roles and
// unknown operations are denied.
func Authorize(role domain.Role, op Operation) bool {
	allowed, ok := permissions[op]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// Check evaluates the gate for an account, distinguishing a missing or
// disabled caller (401) from an insufficient role (403).
func Check(user *domain.User, op Operation) error {
	if user == nil || !user.Active {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !Authorize(user.Role, op) {
		return apperrors.NewForbidden("insufficient role for " + op.String())
	}
	return nil
}
