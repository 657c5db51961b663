package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Claims represents the identity claims transmitted via a bearer Credential.
// Roles is kept loosely typed: backends have historically emitted either a
// comma-separated string or an array; user.NormalizeRoles owns the mapping.
type Claims struct {
	jwt.StandardClaims
	Name      string      `json:"name,omitempty"`
	Email     string      `json:"email,omitempty"`
	SchoolID  string      `json:"school_id,omitempty"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	Roles     interface{} `json:"roles,omitempty"`
}

// NewUserClaims builds the Claims for an authenticated user.
func NewUserClaims(usr user.User, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  "Shule Portal",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:      usr.Name,
		Email:     usr.Email,
		SchoolID:  usr.SchoolID,
		AvatarURL: usr.AvatarURL,
		Roles:     usr.Roles,
	}
}

// EncodeCredential signs the claims into an opaque bearer Credential string.
func EncodeCredential(claims *Claims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	cred, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing credential")
	}
	return cred, nil
}

// DecodeCredential parses and verifies a Credential, returning its Claims.
func DecodeCredential(cred string, conf *core.Config) (*Claims, error) {
	token, err := jwt.ParseWithClaims(cred, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing credential")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid credential claims")
	}
	return claims, nil
}
