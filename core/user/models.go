package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// NormalizedRole is one canonical role tag derived from possibly-inconsistent
// raw role strings.
type NormalizedRole string

const (
	RoleAdmin   NormalizedRole = "ADMIN"
	RoleTeacher NormalizedRole = "TEACHER"
	RoleStudent NormalizedRole = "STUDENT"
	RoleParent  NormalizedRole = "PARENT"

	rolePrefix = "ROLE_"
)

var (
	// resolutionOrder is the fixed priority used by ResolveRole: a user somehow
	// holding both ADMIN and STUDENT role strings resolves to ADMIN.
	resolutionOrder = []NormalizedRole{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

	AllRoles = []string{string(RoleAdmin), string(RoleTeacher), string(RoleStudent), string(RoleParent)}

	rolePriorities = map[NormalizedRole]int{
		RoleAdmin:   40,
		RoleTeacher: 30,
		RoleStudent: 20,
		RoleParent:  10,
	}

	Roles = []Role{
		{Name: "Student", Value: string(RoleStudent)},
		{Name: "Parent", Value: string(RoleParent)},
		{Name: "Teacher", Value: string(RoleTeacher)},
		{Name: "Admin", Value: string(RoleAdmin)},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NormalizeRoles maps inconsistent raw role representations (a comma-separated
// string or a list, entries optionally carrying a "ROLE_" prefix) into a
// uniform ordered list of uppercased role strings, de-duplicated with first
// occurrence winning. All role-string parsing lives here; no other component
// re-implements it.
func NormalizeRoles(raw interface{}) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []interface{}:
		for _, r := range v {
			if s, ok := r.(string); ok {
				parts = append(parts, s)
			}
		}
	}

	roles := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		role := strings.ToUpper(core.CleanString(part))
		role = strings.TrimPrefix(role, rolePrefix)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

// ResolveRole maps a raw set of role strings to exactly one NormalizedRole.
// Resolution is total and deterministic: known roles are matched in fixed
// priority order (ADMIN, TEACHER, STUDENT, PARENT) and the first match wins;
// when no known role is present the result defaults to STUDENT.
func ResolveRole(rawRoles []string) NormalizedRole {
	normalized := NormalizeRoles(rawRoles)
	for _, role := range resolutionOrder {
		for _, raw := range normalized {
			if raw == string(role) {
				return role
			}
		}
	}
	return RoleStudent
}

// ResolvesByDefault reports whether a non-empty raw role list carries no known
// role and would therefore resolve to STUDENT only by default.
func ResolvesByDefault(rawRoles []string) bool {
	if len(NormalizeRoles(rawRoles)) == 0 {
		return false
	}
	known := map[string]struct{}{}
	for _, role := range resolutionOrder {
		known[string(role)] = struct{}{}
	}
	for _, raw := range NormalizeRoles(rawRoles) {
		if _, ok := known[raw]; ok {
			return false
		}
	}
	return true
}

// HasRole checks membership of a normalized role in a raw role list.
func HasRole(rawRoles []string, role NormalizedRole) bool {
	for _, raw := range NormalizeRoles(rawRoles) {
		if raw == string(role) {
			return true
		}
	}
	return false
}

func RolePriority(role NormalizedRole) int {
	return rolePriorities[role]
}

// MaxRolePriority returns the priority of the highest known role in rawRoles.
func MaxRolePriority(rawRoles []string) int {
	var max int
	for _, raw := range NormalizeRoles(rawRoles) {
		if p := rolePriorities[NormalizedRole(raw)]; p > max {
			max = p
		}
	}
	return max
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	SchoolID     string    `json:"school_id,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	IsActive     *bool     `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) PrimaryRole() NormalizedRole {
	return ResolveRole(u.Roles)
}

func (u *User) IsAdmin() bool {
	return HasRole(u.Roles, RoleAdmin)
}

func (u *User) IsTeacher() bool {
	return HasRole(u.Roles, RoleTeacher)
}

func (u *User) IsStudent() bool {
	return HasRole(u.Roles, RoleStudent)
}

func (u *User) IsParent() bool {
	return HasRole(u.Roles, RoleParent)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	SchoolID        string   `json:"school_id"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Roles = NormalizeRoles(nu.Roles)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }
