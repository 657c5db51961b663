package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func TestEncodeDecodeCredential(t *testing.T) {
	conf := testutil.NewConfig()
	usr := user.User{
		ID:       "77b08b4a-2b43-4e42-a686-a79e09df8b5b",
		Name:     "Awe Mbi",
		Email:    "awe@test.cd",
		SchoolID: "sch-01",
		Roles:    []string{"ROLE_TEACHER"},
	}

	cred, err := EncodeCredential(NewUserClaims(usr, conf), conf)
	require.NoError(t, err)
	require.NotEmpty(t, cred)

	claims, err := DecodeCredential(cred, conf)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, claims.Subject)
	assert.Equal(t, usr.Name, claims.Name)
	assert.Equal(t, usr.Email, claims.Email)
	assert.Equal(t, usr.SchoolID, claims.SchoolID)
	assert.Equal(t, conf.AppName, claims.Issuer)

	sess := newSessionFromClaims(claims)
	assert.Equal(t, []string{"TEACHER"}, sess.Roles)
	assert.Equal(t, user.RoleTeacher, sess.PrimaryRole())
}

func TestDecodeCredential_tampered(t *testing.T) {
	conf := testutil.NewConfig()
	usr := user.User{ID: "77b08b4a-2b43-4e42-a686-a79e09df8b5b"}

	cred, err := EncodeCredential(NewUserClaims(usr, conf), conf)
	require.NoError(t, err)

	otherConf := testutil.NewConfig()
	otherConf.SecretKey = "other"
	_, err = DecodeCredential(cred, otherConf)
	assert.Error(t, err)

	_, err = DecodeCredential("not.a.credential", conf)
	assert.Error(t, err)
}

// Legacy credentials carry roles as a comma-separated string; both shapes must
// resolve the same way.
func TestClaims_legacyRoleString(t *testing.T) {
	conf := testutil.NewConfig()

	claims := NewUserClaims(user.User{ID: "id-1"}, conf)
	claims.Roles = "ROLE_ADMIN,teacher"

	cred, err := EncodeCredential(claims, conf)
	require.NoError(t, err)
	decoded, err := DecodeCredential(cred, conf)
	require.NoError(t, err)

	sess := newSessionFromClaims(decoded)
	assert.Equal(t, []string{"ADMIN", "TEACHER"}, sess.Roles)
	assert.Equal(t, user.RoleAdmin, sess.PrimaryRole())
}
