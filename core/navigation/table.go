package navigation

import "github.com/trezcool/shule/core/user"

// Entry is an immutable navigation item.
type Entry struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Table is an ordered sequence of entries, unique by path.
type Table []Entry

var (
	adminTable = Table{
		{Path: "/dashboard/admin", Label: "Dashboard", Icon: "speedometer"},
		{Path: "/students", Label: "Students", Icon: "people"},
		{Path: "/teachers", Label: "Teachers", Icon: "person-badge"},
		{Path: "/classes", Label: "Classes", Icon: "building"},
		{Path: "/fees", Label: "Fees", Icon: "cash-stack"},
		{Path: "/exams", Label: "Exams", Icon: "journal-check"},
		{Path: "/timetable", Label: "Timetable", Icon: "table"},
		{Path: "/notifications", Label: "Notifications", Icon: "bell"},
		{Path: "/gallery", Label: "Gallery", Icon: "images"},
		{Path: "/calendar", Label: "Calendar", Icon: "calendar3"},
		{Path: "/settings", Label: "Settings", Icon: "gear"},
	}

	teacherTable = Table{
		{Path: "/dashboard/teacher", Label: "Dashboard", Icon: "speedometer"},
		{Path: "/classes", Label: "My Classes", Icon: "building"},
		{Path: "/students", Label: "Students", Icon: "people"},
		{Path: "/exams", Label: "Exams", Icon: "journal-check"},
		{Path: "/timetable", Label: "Timetable", Icon: "table"},
		{Path: "/notifications", Label: "Notifications", Icon: "bell"},
		{Path: "/calendar", Label: "Calendar", Icon: "calendar3"},
	}

	studentTable = Table{
		{Path: "/dashboard/student", Label: "Dashboard", Icon: "speedometer"},
		{Path: "/timetable", Label: "Timetable", Icon: "table"},
		{Path: "/exams", Label: "Results", Icon: "journal-check"},
		{Path: "/fees", Label: "Fees", Icon: "cash-stack"},
		{Path: "/notifications", Label: "Notifications", Icon: "bell"},
		{Path: "/gallery", Label: "Gallery", Icon: "images"},
		{Path: "/calendar", Label: "Calendar", Icon: "calendar3"},
	}

	parentTable = Table{
		{Path: "/dashboard/parent", Label: "Dashboard", Icon: "speedometer"},
		{Path: "/children", Label: "My Children", Icon: "people"},
		{Path: "/fees", Label: "Fees", Icon: "cash-stack"},
		{Path: "/exams", Label: "Results", Icon: "journal-check"},
		{Path: "/notifications", Label: "Notifications", Icon: "bell"},
		{Path: "/calendar", Label: "Calendar", Icon: "calendar3"},
	}
)

// DefaultTableFor returns the fixed, hand-authored table for a role.
// The returned Table is a copy; callers may not mutate the defaults.
func DefaultTableFor(role user.NormalizedRole) Table {
	var table Table
	switch role {
	case user.RoleAdmin:
		table = adminTable
	case user.RoleTeacher:
		table = teacherTable
	case user.RoleParent:
		table = parentTable
	default:
		table = studentTable
	}
	return append(Table(nil), table...)
}

// Merge concatenates defaults and overrides, removing any entry whose path
// already appeared earlier. First occurrence wins: a default always wins over
// an override with the same path. Total over its inputs.
func Merge(defaults, overrides Table) Table {
	if len(overrides) == 0 {
		return append(Table(nil), defaults...)
	}

	merged := make(Table, 0, len(defaults)+len(overrides))
	seen := make(map[string]struct{}, len(defaults)+len(overrides))
	for _, entry := range append(append(Table(nil), defaults...), overrides...) {
		if _, ok := seen[entry.Path]; ok {
			continue
		}
		seen[entry.Path] = struct{}{}
		merged = append(merged, entry)
	}
	return merged
}

// TableFor returns the role's default table merged with optional per-page overrides.
func TableFor(role user.NormalizedRole, overrides ...Entry) Table {
	return Merge(DefaultTableFor(role), overrides)
}
