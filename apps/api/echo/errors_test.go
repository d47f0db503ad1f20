package echoapi

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
)

type recordingLogger struct {
	errMsgs []string
	errArgs [][]interface{}
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) {}
func (l *recordingLogger) Info(msg string, args ...interface{})  {}
func (l *recordingLogger) Warn(msg string, args ...interface{})  {}
func (l *recordingLogger) Fatal(msg string, args ...interface{}) {}
func (l *recordingLogger) Error(msg string, args ...interface{}) {
	l.errMsgs = append(l.errMsgs, msg)
	l.errArgs = append(l.errArgs, args)
}

func handleError(t *testing.T, logger core.Logger, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	newAppHTTPErrorHandler(logger)(err, e.NewContext(req, rec))
	return rec
}

func TestHTTPErrorHandler_ServerErrorsAreLogged(t *testing.T) {
	logger := new(recordingLogger)

	rec := handleError(t, logger, errors.Wrap(sql.ErrConnDone, "fetching workshop"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d; want %d", rec.Code, http.StatusInternalServerError)
	}
	var body httpErr
	decodeBody(t, rec, &body)
	if body.Error != http.StatusText(http.StatusInternalServerError) {
		t.Errorf("body = %+v; the underlying error must not leak", body)
	}
	if len(logger.errMsgs) != 1 {
		t.Fatalf("logged %d errors; want 1", len(logger.errMsgs))
	}
	if len(logger.errArgs[0]) == 0 {
		t.Error("the logged call is missing the wrapped error")
	}
}

func TestHTTPErrorHandler_UnwrapsWrappedErrors(t *testing.T) {
	logger := new(recordingLogger)

	rec := handleError(t, logger, errors.Wrap(workshop.ErrNotFound, "handling request"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d; want %d", rec.Code, http.StatusNotFound)
	}
	var body httpErr
	decodeBody(t, rec, &body)
	if body.Error != "Workshop not found" {
		t.Errorf("body = %+v", body)
	}
	if len(logger.errMsgs) != 0 {
		t.Errorf("logged %d errors; domain errors are not server errors", len(logger.errMsgs))
	}
}
