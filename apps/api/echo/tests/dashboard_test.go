package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/navigation"
	testutil "github.com/trezcool/shule/tests"
)

func Test_dashboardApi(t *testing.T) {
	t.Run("unauthenticated redirects to login", func(t *testing.T) {
		logout(t)
		req, rec := newRequest(http.MethodGet, "/v1/dashboard")
		app.ServeHTTP(rec, req)
		checkRedirectToLogin(t, rec)
	})

	tests := []struct {
		name  string
		email string
		roles []string
		want  navigation.View
	}{
		{name: "admin wins over teacher", email: "dash.admin@test.cd", roles: []string{"ROLE_TEACHER", "admin"}, want: navigation.ViewAdminDashboard},
		{name: "teacher", email: "dash.teacher@test.cd", roles: []string{"teacher"}, want: navigation.ViewTeacherDashboard},
		{name: "parent", email: "dash.parent@test.cd", roles: []string{"ROLE_PARENT"}, want: navigation.ViewParentDashboard},
		{name: "no roles defaults to student", email: "dash.none@test.cd", roles: nil, want: navigation.ViewStudentDashboard},
		{name: "unknown roles default to student", email: "dash.unknown@test.cd", roles: []string{"ROLE_LIBRARIAN"}, want: navigation.ViewStudentDashboard},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			usr := testutil.CreateUser(t, usrRepo, "Dash", tc.email, "s3cr3t!", tc.roles, true)
			login(t, usr.Email, "s3cr3t!")
			defer logout(t)

			req, rec := newRequest(http.MethodGet, "/v1/dashboard")
			app.ServeHTTP(rec, req)
			tt := httpTest{
				wantCode: http.StatusOK,
				wantData: marchallObj(t, map[string]interface{}{"view": tc.want}),
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
