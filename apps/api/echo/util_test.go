package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core/album"
	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
	"github.com/WMS-GIETU/WorkshopMS/core/face"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
	emailsvc "github.com/WMS-GIETU/WorkshopMS/services/email"
	logsvc "github.com/WMS-GIETU/WorkshopMS/services/logger"
	inmemdb "github.com/WMS-GIETU/WorkshopMS/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	server Server

	usrRepo user.Repository
	otps    user.OTPStore
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	emailsvc.ClearSentMessages()

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	otps := inmemdb.NewOTPStore()
	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))

	srv := NewServer(&Options{
		DisableReqLogs:  true,
		Logger:          logger,
		UserSvc:         user.NewService(usrRepo, otps, mailSvc, logger),
		RegistrationSvc: registration.NewService(inmemdb.NewRegistrationRepository(db), usrRepo, mailSvc, logger),
		WorkshopSvc: workshop.NewService(
			inmemdb.NewWorkshopRepository(db),
			inmemdb.NewWorkshopRequestRepository(db),
			inmemdb.NewWorkshopRegistrationRepository(db),
			logger,
		),
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db), logger),
		AlbumSvc:      album.NewService(inmemdb.NewAlbumRepository(db), inmemdb.NewWorkshopRepository(db), logger),
		FaceSvc:       face.NewService(inmemdb.NewFaceRepository(db), mailSvc, logger),
	})
	return &testEnv{server: srv, usrRepo: usrRepo, otps: otps}
}

func (env *testEnv) createUser(t *testing.T, username string, roles []user.Role, clubCode string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:  username,
		Email:     username + "@test.com",
		Roles:     roles,
		ClubCode:  clubCode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword("s3cr3t!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) createStudent(t *testing.T, username, rollNo string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:  username,
		Email:     username + "@test.com",
		Roles:     []user.Role{user.RoleStudent},
		Name:      username,
		RollNo:    rollNo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword("s3cr3t!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

// newFormRequest builds a multipart request the way the frontend submits
// workshop forms; an "image" file part is attached when imageData is set.
func newFormRequest(t *testing.T, method, path, token string, fields map[string]string, imageData []byte) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) failed: %v", k, err)
		}
	}
	if imageData != nil {
		fw, err := w.CreateFormFile("image", "upload.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		if _, err := fw.Write(imageData); err != nil {
			t.Fatalf("writing image part failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer failed: %v", err)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := generateToken(getUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(io.Reader(rec.Body)).Decode(out); err != nil {
		t.Fatalf("decoding response body failed: %v\nbody: %s", err, rec.Body.String())
	}
}

func checkError(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantErr httpErr) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("code = %d; want %d (body: %s)", rec.Code, wantCode, rec.Body.String())
	}
	var got httpErr
	decodeBody(t, rec, &got)
	if got != wantErr {
		t.Errorf("error = %+v; want %+v", got, wantErr)
	}
}
