package session

import (
	"time"

	"github.com/trezcool/shule/core/user"
)

// Session represents the authenticated actor's identity and role data.
// It is exclusively owned by the Store; consumers read snapshots and never
// mutate them in place.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	SchoolID  string    `json:"school_id,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// newSessionFromClaims maps decoded credential claims into a Session, running
// the raw role payload through the central normalizer.
func newSessionFromClaims(claims *Claims) Session {
	return Session{
		ID:        claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		SchoolID:  claims.SchoolID,
		AvatarURL: claims.AvatarURL,
		Roles:     user.NormalizeRoles(claims.Roles),
		CreatedAt: time.Unix(claims.IssuedAt, 0).UTC(),
	}
}

// PrimaryRole derives the one normalized role tag for dispatch purposes.
// It is recomputed on every call; a Session with zero roles resolves to the
// resolver's default.
func (s Session) PrimaryRole() user.NormalizedRole {
	return user.ResolveRole(s.Roles)
}

func (s Session) HasRole(role user.NormalizedRole) bool {
	return user.HasRole(s.Roles, role)
}
