package tests

import (
	"context"
	"net/http"
	"testing"

	. "github.com/chendurkumaran/eduresource/apps/api/echo"
	"github.com/chendurkumaran/eduresource/core/user"
)

func Test_userApi_login(t *testing.T) {
	resetDB(t)

	createUser(t, "Hero", "herostu", "hero@test.cd", "s3cr3tpwd", user.StudentRoles)
	naughty := createUser(t, "N Dog", "ndog01", "ndog@test.cd", "s3cr3tpwd", user.StudentRoles)
	naughty.IsActive = false
	inactive := false
	if _, err := usrRepo.UpdateUser(context.Background(), naughty, &inactive); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}

	tests := []httpTest{
		{
			name: "username & password required", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "this field is required", "password": "this field is required"}`),
		},
		{
			name: "unknown user", body: marshallObj(t, LoginRequest{Username: "who", Password: "dis"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marshallObj(t, LoginRequest{Username: "herostu", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marshallObj(t, LoginRequest{Username: "ndog01", Password: "s3cr3tpwd"}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login by username", body: marshallObj(t, LoginRequest{Username: "herostu", Password: "s3cr3tpwd"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login by email", body: marshallObj(t, LoginRequest{Username: "hero@test.cd", Password: "s3cr3tpwd"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				unmarshalBody(t, rec, &resp)
				if resp.Token == "" {
					t.Error("failed! empty token")
				}
			}
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "herostu", "hero@test.cd", "", user.StudentRoles)
	admin := createUser(t, "Admin", "admin1", "admin@test.cd", "", user.AdminRoles)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "admin required", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "get all", token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var users []user.User
				unmarshalBody(t, rec, &users)
				if len(users) != 2 {
					t.Errorf("failed! got %d users; want 2", len(users))
				}
			}
		})
	}
}

func Test_userApi_register(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "herostu", "hero@test.cd", "", user.StudentRoles)
	admin := createUser(t, "Admin", "admin1", "admin@test.cd", "", user.AdminRoles)

	body := marshallObj(t, user.NewUser{
		Name:            "New Student",
		Username:        "newstu1",
		Email:           "new@test.cd",
		Password:        "V3ry$3cret",
		PasswordConfirm: "V3ry$3cret",
		Roles:           user.StudentRoles,
	})

	t.Run("admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, student), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("admin registers", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		unmarshalBody(t, rec, &usr)
		if usr.ID == "" || usr.Username != "newstu1" {
			t.Errorf("failed! unexpected user %+v", usr)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_userApi_retrieveAndUpdate(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "herostu", "hero@test.cd", "", user.StudentRoles)
	other := createUser(t, "Other", "otherstu", "other@test.cd", "", user.StudentRoles)
	admin := createUser(t, "Admin", "admin1", "admin@test.cd", "", user.AdminRoles)

	t.Run("own profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+student.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, student)}, rec)
	})

	t.Run("someone else's profile is hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+other.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("admin sees any profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+other.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, other)}, rec)
	})

	t.Run("non-admin cannot change roles", func(t *testing.T) {
		body := marshallObj(t, user.UpdateUser{Roles: user.AdminRoles})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+student.ID, getToken(t, student), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("self rename", func(t *testing.T) {
		body := []byte(`{"name": "Hero Renamed"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+student.ID, getToken(t, student), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		unmarshalBody(t, rec, &usr)
		if usr.Name != "Hero Renamed" {
			t.Errorf("failed! name = %v", usr.Name)
		}
	})
}

func Test_userApi_destroy(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "herostu", "hero@test.cd", "", user.StudentRoles)
	admin := createUser(t, "Admin", "admin1", "admin@test.cd", "", user.AdminRoles)

	t.Run("self-delete forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+student.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+student.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}
