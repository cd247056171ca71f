// Package policy holds the role-based authorization rules. Every check is a
// pure function of the calling principal and, where relevant, the HTTP method.
package policy

import (
	"net/http"

	"lms_backend/internal/model"
)

// Principal is the authenticated caller as seen by the authorization rules.
// The zero value is the anonymous principal.
type Principal struct {
	UserID  int64
	Role    model.Role
	HasRole bool
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal { return Principal{} }

// NewPrincipal builds a principal for userID from its (possibly missing) profile.
func NewPrincipal(userID int64, profile *model.Profile) Principal {
	role, ok := ResolveRole(profile)
	return Principal{UserID: userID, Role: role, HasRole: ok}
}

// ResolveRole returns the role carried by profile. A missing profile or an
// unknown role value resolves to no role.
func ResolveRole(profile *model.Profile) (model.Role, bool) {
	if profile == nil || !profile.Role.Valid() {
		return "", false
	}
	return profile.Role, true
}

func (p Principal) Authenticated() bool { return p.UserID != 0 }

func (p Principal) is(roles ...model.Role) bool {
	if !p.Authenticated() || !p.HasRole {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// IsSafeMethod reports whether method is read-only.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func IsAdmin(p Principal) bool { return p.is(model.RoleAdmin) }

// IsInstructor allows instructors and admins.
func IsInstructor(p Principal) bool { return p.is(model.RoleAdmin, model.RoleInstructor) }

// IsStudent allows students and admins.
func IsStudent(p Principal) bool { return p.is(model.RoleAdmin, model.RoleStudent) }

// CanEnroll is true for the roles allowed to create enrollments.
func CanEnroll(p Principal) bool { return IsStudent(p) }

// IsAdminOrReadOnly lets any authenticated caller read and only admins write.
func IsAdminOrReadOnly(p Principal, method string) bool {
	if IsSafeMethod(method) {
		return p.Authenticated()
	}
	return IsAdmin(p)
}

// IsInstructorOrReadOnly lets any authenticated caller read and admins or
// instructors write.
func IsInstructorOrReadOnly(p Principal, method string) bool {
	if IsSafeMethod(method) {
		return p.Authenticated()
	}
	return IsInstructor(p)
}

// Check is a method-aware authorization rule.
type Check func(p Principal, method string) bool

// Always lifts a method-independent rule into a Check.
func Always(rule func(Principal) bool) Check {
	return func(p Principal, _ string) bool { return rule(p) }
}

// Authenticated allows any authenticated caller regardless of role.
func Authenticated(p Principal, _ string) bool { return p.Authenticated() }
