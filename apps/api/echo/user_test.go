package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WMS-GIETU/WorkshopMS/core/user"
	emailsvc "github.com/WMS-GIETU/WorkshopMS/services/email"
)

func TestAuthAPI_Login(t *testing.T) {
	env := setup(t)
	env.createUser(t, "sarsadmin", []user.Role{user.RoleAdmin}, "sars")
	env.createStudent(t, "johndoe", "21cs001")

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
	}{
		{
			name:     "club admin login",
			body:     user.Credentials{Username: "sarsadmin", Password: "s3cr3t!", ClubCode: "sars"},
			wantCode: http.StatusOK,
		},
		{
			name:     "student login without club",
			body:     user.Credentials{Username: "johndoe", Password: "s3cr3t!"},
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     user.Credentials{Username: "sarsadmin", Password: "nope", ClubCode: "sars"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing fields",
			body:     user.Credentials{Username: "sarsadmin"},
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(newRequest(http.MethodPost, "/api/auth/login", marshallObj(t, tt.body)))
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d; want %d (body: %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var res struct {
					Token string    `json:"token"`
					User  user.User `json:"user"`
				}
				decodeBody(t, rec, &res)
				if res.Token == "" {
					t.Error("login response is missing the token")
				}
				if res.User.ID == "" {
					t.Error("login response is missing the user")
				}
			}
		})
	}
}

func TestAuthAPI_CheckAdmin(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "sarsadmin", []user.Role{user.RoleAdmin}, "sars")

	rec := env.do(newRequest(http.MethodGet, "/api/auth/check-admin/sars"))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; want %d", rec.Code, http.StatusOK)
	}
	var res struct {
		Exists bool       `json:"exists"`
		Admin  *user.User `json:"admin"`
	}
	decodeBody(t, rec, &res)
	if !res.Exists || res.Admin == nil || res.Admin.ID != admin.ID {
		t.Errorf("check-admin = %+v; want the sars admin", res)
	}

	rec = env.do(newRequest(http.MethodGet, "/api/auth/check-admin/robotics"))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; want %d", rec.Code, http.StatusOK)
	}
	decodeBody(t, rec, &res)
	if res.Exists || res.Admin != nil {
		t.Errorf("check-admin = %+v; want no admin", res)
	}
}

func TestAuthAPI_StudentRegistration(t *testing.T) {
	env := setup(t)

	rec := env.do(newRequest(http.MethodPost, "/api/auth/student/send-otp",
		marshallObj(t, map[string]string{"email": "johndoe@test.com"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("send-otp code = %d; want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("send-otp sent %d emails; want 1", len(emailsvc.SentMessages))
	}
	code := emailsvc.SentMessages[0].TemplateData.(map[string]interface{})["OTP"].(string)

	register := func(otp string) *http.Request {
		return newRequest(http.MethodPost, "/api/auth/student/register", marshallObj(t, user.NewStudent{
			Name:     "John Doe",
			Username: "johndoe",
			Email:    "johndoe@test.com",
			Password: "passw0rd",
			RollNo:   "21cs001",
			OTP:      otp,
		}))
	}

	rec = env.do(register("000000"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("register with bad OTP code = %d; want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(register(code))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register code = %d; want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var res struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
	decodeBody(t, rec, &res)
	if res.Token == "" || !user.HasRole(res.User.Roles, user.RoleStudent) {
		t.Errorf("register response = %+v; want a student with a token", res)
	}
}

func TestAuthAPI_ClubUsers(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "sarsadmin", []user.Role{user.RoleAdmin}, "sars")
	member := env.createUser(t, "johndoe", []user.Role{user.RoleClubMember}, "sars")
	otherMember := env.createUser(t, "janedoe", []user.Role{user.RoleClubMember}, "robotics")
	student := env.createStudent(t, "studious", "21cs001")

	adminToken := getToken(t, admin)
	memberToken := getToken(t, member)
	studentToken := getToken(t, student)

	t.Run("list requires auth", func(t *testing.T) {
		rec := env.do(newRequest(http.MethodGet, "/api/auth/users"))
		checkError(t, rec, http.StatusUnauthorized, errMissingToken)
	})

	t.Run("students may not list club users", func(t *testing.T) {
		rec := env.do(newAuthRequest(http.MethodGet, "/api/auth/users", studentToken))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("list returns the actor's club", func(t *testing.T) {
		rec := env.do(newAuthRequest(http.MethodGet, "/api/auth/users", adminToken))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d", rec.Code, http.StatusOK)
		}
		var users []user.User
		decodeBody(t, rec, &users)
		names := make([]string, 0, len(users))
		for _, u := range users {
			if u.ClubCode != "sars" {
				t.Errorf("listed user %s of club %s; want sars only", u.Username, u.ClubCode)
			}
			names = append(names, u.Username)
		}
		assert.ElementsMatch(t, []string{"sarsadmin", "johndoe"}, names)
	})

	t.Run("members may not edit", func(t *testing.T) {
		rec := env.do(newAuthRequest(http.MethodPut, "/api/auth/users/"+member.ID, memberToken,
			marshallObj(t, user.UpdateUser{Email: "new@test.com"})))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("other clubs are hidden", func(t *testing.T) {
		rec := env.do(newAuthRequest(http.MethodDelete, "/api/auth/users/"+otherMember.ID, adminToken))
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("no self-delete", func(t *testing.T) {
		rec := env.do(newAuthRequest(http.MethodDelete, "/api/auth/users/"+admin.ID, adminToken))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("admin updates and deletes a member", func(t *testing.T) {
		rec := env.do(newAuthRequest(http.MethodPut, "/api/auth/users/"+member.ID, adminToken,
			marshallObj(t, user.UpdateUser{Email: "john@sars.org"})))
		if rec.Code != http.StatusOK {
			t.Fatalf("update code = %d; want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated user.User
		decodeBody(t, rec, &updated)
		if updated.Email != "john@sars.org" {
			t.Errorf("updated email = %s; want john@sars.org", updated.Email)
		}

		rec = env.do(newAuthRequest(http.MethodDelete, "/api/auth/users/"+member.ID, adminToken))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete code = %d; want %d", rec.Code, http.StatusNoContent)
		}
		if _, err := env.usrRepo.GetUserByID(context.Background(), member.ID); err == nil {
			t.Error("deleted user is still retrievable")
		}
	})
}
