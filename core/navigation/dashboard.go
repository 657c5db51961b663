package navigation

import "github.com/trezcool/shule/core/user"

// View identifies a top-level dashboard view.
type View string

const (
	ViewAdminDashboard   View = "AdminDashboard"
	ViewTeacherDashboard View = "TeacherDashboard"
	ViewStudentDashboard View = "StudentDashboard"
	ViewParentDashboard  View = "ParentDashboard"
	ViewUnauthorized     View = "Unauthorized"
)

// ChooseDashboard maps a normalized role to its dashboard view. The resolver's
// STUDENT default means the Unauthorized terminal is unreachable through
// user.ResolveRole today; it stays defined in case the resolver's contract
// ever changes.
func ChooseDashboard(role user.NormalizedRole) View {
	switch role {
	case user.RoleAdmin:
		return ViewAdminDashboard
	case user.RoleTeacher:
		return ViewTeacherDashboard
	case user.RoleStudent:
		return ViewStudentDashboard
	case user.RoleParent:
		return ViewParentDashboard
	}
	return ViewUnauthorized
}

// Dispatch is the dashboard dispatcher's output. RawRoles carries the actor's
// raw, unresolved role list for diagnostics when the view is Unauthorized.
type Dispatch struct {
	View     View     `json:"view"`
	RawRoles []string `json:"raw_roles,omitempty"`
}

// DispatchFor resolves rawRoles and chooses the dashboard to render.
func DispatchFor(rawRoles []string) Dispatch {
	view := ChooseDashboard(user.ResolveRole(rawRoles))
	d := Dispatch{View: view}
	if view == ViewUnauthorized {
		d.RawRoles = rawRoles
	}
	return d
}
