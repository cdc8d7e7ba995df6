package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition/internal/auth"
	"tuition/internal/photo"
	"tuition/internal/store"
	"tuition/internal/student"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(dir, "tuition.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer := auth.NewIssuer("tuition-test", "secret", "1234", time.Minute, time.Hour)
	h := New(student.NewService(store.NewRepository(db)), issuer, photo.NewDisk(filepath.Join(dir, "photos")),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC) }

	r := gin.New()
	h.Routes(r)
	a := &api{t: t, router: r}

	var pair auth.TokenPair
	a.do(http.MethodPost, "/v1/sessions", map[string]string{"passcode": "1234"}, http.StatusCreated, &pair)
	a.token = pair.AccessToken
	return a
}

func (a *api) do(method, path string, body any, want int, out any) {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(a.t, want, w.Code, w.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out))
	}
}

func TestAPI_StudentLifecycle(t *testing.T) {
	a := newAPI(t)

	form := student.Form{
		Name:      "Asha",
		FeeAmount: "500",
		Subjects:  []student.SubjectForm{{Name: "Maths", Slots: []student.Slot{{Day: "Mon", Time: "4:00 PM"}, {Day: "Wed", Time: "4:00 PM"}}}},
	}
	var st student.Student
	a.do(http.MethodPost, "/v1/students", form, http.StatusCreated, &st)
	require.NotEmpty(t, st.ID)

	var list []student.Student
	a.do(http.MethodGet, "/v1/students", nil, http.StatusOK, &list)
	assert.Len(t, list, 1)

	var cal struct {
		Stats struct{ Total, Completed, Remaining int }
		Due   []string
	}
	a.do(http.MethodPut, "/v1/students/"+st.ID+"/attendance/2024-06-10", map[string]string{"status": "done"}, http.StatusOK, &cal)
	assert.Equal(t, 8, cal.Stats.Total)
	assert.Equal(t, 1, cal.Stats.Completed)
	assert.Equal(t, []string{"03", "05"}, cal.Due)

	var fee struct {
		Month     string `json:"month"`
		IsPaid    bool   `json:"is_paid"`
		AmountDue string `json:"amount_due"`
	}
	a.do(http.MethodPut, "/v1/students/"+st.ID+"/fees/current", map[string]bool{"paid": true}, http.StatusOK, &fee)
	assert.Equal(t, "2024-06", fee.Month)
	assert.Equal(t, "0", fee.AmountDue)

	var detail struct {
		Fee struct {
			IsPaid bool `json:"is_paid"`
		} `json:"fee"`
		Schedule []struct {
			Text string `json:"text"`
		} `json:"schedule"`
	}
	a.do(http.MethodGet, "/v1/students/"+st.ID, nil, http.StatusOK, &detail)
	assert.True(t, detail.Fee.IsPaid)
	require.Len(t, detail.Schedule, 2)
	assert.Equal(t, "Maths | Mon @ 4:00 PM", detail.Schedule[0].Text)

	var history []map[string]any
	a.do(http.MethodGet, "/v1/students/"+st.ID+"/fees", nil, http.StatusOK, &history)
	assert.Len(t, history, 1)

	var edit student.Form
	a.do(http.MethodGet, "/v1/students/"+st.ID+"/form", nil, http.StatusOK, &edit)
	assert.Equal(t, form.Subjects, edit.Subjects)

	a.do(http.MethodDelete, "/v1/students/"+st.ID, nil, http.StatusNoContent, nil)
	a.do(http.MethodGet, "/v1/students/"+st.ID, nil, http.StatusNotFound, nil)
}

func TestAPI_ValidationAndAuth(t *testing.T) {
	a := newAPI(t)

	var body map[string]string
	a.do(http.MethodPost, "/v1/students", student.Form{Name: ""}, http.StatusBadRequest, &body)
	assert.Equal(t, "name", body["field"])

	var st student.Student
	a.do(http.MethodPost, "/v1/students", student.Form{Name: "Ravi"}, http.StatusCreated, &st)
	a.do(http.MethodPut, "/v1/students/"+st.ID+"/attendance/2024-06-10", map[string]string{"status": "late"}, http.StatusBadRequest, nil)
	a.do(http.MethodPut, "/v1/students/"+st.ID+"/fees/2024-6", map[string]bool{"paid": true}, http.StatusBadRequest, nil)
	a.do(http.MethodPut, "/v1/students/missing/fees/2024-06", map[string]bool{"paid": true}, http.StatusNotFound, nil)

	a.token = ""
	a.do(http.MethodGet, "/v1/students", nil, http.StatusUnauthorized, nil)
	a.do(http.MethodPost, "/v1/sessions", map[string]string{"passcode": "nope"}, http.StatusUnauthorized, nil)
}

func TestAPI_PhotoUpload(t *testing.T) {
	a := newAPI(t)
	var st student.Student
	a.do(http.MethodPost, "/v1/students", student.Form{Name: "Asha"}, http.StatusCreated, &st)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", "asha.jpg")
	require.NoError(t, err)
	part.Write([]byte("jpeg-bytes"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/students/"+st.ID+"/photo", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detail struct {
		Student student.Student `json:"student"`
	}
	a.do(http.MethodGet, "/v1/students/"+st.ID, nil, http.StatusOK, &detail)
	assert.Regexp(t, `^photo_\d{8}_\d{6}\.jpg$`, filepath.Base(detail.Student.PhotoPath))

	uploaded := detail.Student.PhotoPath
	a.do(http.MethodPut, "/v1/students/"+st.ID, student.Form{Name: "Asha K"}, http.StatusOK, nil)
	var edited struct {
		Student student.Student `json:"student"`
	}
	a.do(http.MethodGet, "/v1/students/"+st.ID, nil, http.StatusOK, &edited)
	assert.Equal(t, uploaded, edited.Student.PhotoPath, "an edit without a photo keeps the upload")

	buf.Reset()
	w = multipart.NewWriter(&buf)
	part, err = w.CreateFormFile("photo", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("text"))
	require.NoError(t, w.Close())
	req = httptest.NewRequest(http.MethodPost, "/v1/students/"+st.ID+"/photo", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
