package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	testutil "github.com/trezcool/shule/tests"
)

func Test_userApi_adminGate(t *testing.T) {
	student := testutil.CreateUser(t, usrRepo, "Student", "gate.student@test.cd", "s3cr3t!", []string{"student"}, true)

	t.Run("unauthenticated redirects to login", func(t *testing.T) {
		logout(t)
		req, rec := newRequest(http.MethodGet, "/v1/users")
		app.ServeHTTP(rec, req)
		checkRedirectToLogin(t, rec)
	})

	t.Run("admin required", func(t *testing.T) {
		login(t, student.Email, "s3cr3t!")
		defer logout(t)

		req, rec := newRequest(http.MethodGet, "/v1/users")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_crud(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Admin", "crud.admin@test.cd", "s3cr3t!", []string{"ROLE_ADMIN"}, true)
	login(t, admin.Email, "s3cr3t!")
	defer logout(t)

	var createdID string

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"name":             "New Teacher",
			"email":            "crud.teacher@test.cd",
			"school_id":        "sch-01",
			"password":         "V3ryS3cr3t!",
			"password_confirm": "V3ryS3cr3t!",
			"roles":            []string{"role_teacher"},
		})
		req, rec := newRequest(http.MethodPost, "/v1/users", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if usr.ID == "" {
			t.Error("created user has no ID")
		}
		if len(usr.Roles) != 1 || usr.Roles[0] != "TEACHER" {
			t.Errorf("roles = %v, want [TEACHER] (normalized)", usr.Roles)
		}
		createdID = usr.ID
	})

	t.Run("create: duplicate email", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"name":             "Copy Cat",
			"email":            "crud.teacher@test.cd",
			"password":         "V3ryS3cr3t!",
			"password_confirm": "V3ryS3cr3t!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users", body)
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create: password mismatch", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"name":             "Mismatch",
			"email":            "crud.mismatch@test.cd",
			"password":         "V3ryS3cr3t!",
			"password_confirm": "nope",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("create: unknown role", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"name":             "Odd",
			"email":            "crud.odd@test.cd",
			"password":         "V3ryS3cr3t!",
			"password_confirm": "V3ryS3cr3t!",
			"roles":            []string{"LIBRARIAN"},
		})
		req, rec := newRequest(http.MethodPost, "/v1/users", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users/"+createdID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if usr.Email != "crud.teacher@test.cd" {
			t.Errorf("email = %v, want crud.teacher@test.cd", usr.Email)
		}
	})

	t.Run("get by id: not found", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users/nope")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("query all", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var usrs []user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usrs); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		var found bool
		for _, u := range usrs {
			if u.ID == createdID {
				found = true
				break
			}
		}
		if !found {
			t.Error("created user missing from query")
		}
	})

	t.Run("roles catalog", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users/roles")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/users/"+createdID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		if _, err := usrRepo.GetUserByID(context.Background(), createdID); err != user.ErrNotFound {
			t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
		}
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Reset Me", "reset.me@test.cd", "s3cr3t!", nil, true)
	logout(t)

	okResp := marchallObj(t, map[string]string{"message": "If the email address supplied is known, a password reset email has been sent."})

	t.Run("invalid email", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "lol"})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown email does not leak existence", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "ghost@test.cd"})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: okResp}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("reset round trip", func(t *testing.T) {
		emailsvc.SentMessages = emailsvc.SentMessages[:0]
		body := marchallObj(t, map[string]string{"email": usr.Email})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: okResp}
		checkCodeAndData(t, tt, rec)

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("SentMessages = %d, want 1", len(emailsvc.SentMessages))
		}
		content := emailsvc.SentMessages[0].TextContent
		link := content[strings.Index(content, "/password-reset?uid="):]
		link = strings.Fields(link)[0]
		params := strings.SplitN(link, "uid=", 2)[1]
		uid := strings.SplitN(params, "&token=", 2)[0]
		token := strings.SplitN(params, "&token=", 2)[1]

		confirm := marchallObj(t, map[string]string{
			"uid":              uid,
			"token":            token,
			"password":         "NewV3ryS3cr3t!",
			"password_confirm": "NewV3ryS3cr3t!",
		})
		req, rec = newRequest(http.MethodPost, "/v1/users/password-reset-confirm", confirm)
		app.ServeHTTP(rec, req)
		tt = httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"message": "Password has been reset."})}
		checkCodeAndData(t, tt, rec)

		refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID(): %v", err)
		}
		if err = refreshed.CheckPassword("NewV3ryS3cr3t!"); err != nil {
			t.Errorf("CheckPassword() failed after reset: %v", err)
		}
	})

	t.Run("bad token rejected", func(t *testing.T) {
		confirm := marchallObj(t, map[string]string{
			"uid":              "bm9wZQ",
			"token":            "lol-token",
			"password":         "NewV3ryS3cr3t!",
			"password_confirm": "NewV3ryS3cr3t!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", confirm)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid token"})}
		checkCodeAndData(t, tt, rec)
	})
}
