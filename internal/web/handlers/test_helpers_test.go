package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/znz-systems/leadform/internal/lead"
	"github.com/znz-systems/leadform/internal/mail"
	"github.com/znz-systems/leadform/internal/models"
	"github.com/znz-systems/leadform/internal/store/csvlog"
	"github.com/znz-systems/leadform/internal/store/sqldb"
)

// --- Shared fixtures ---

type testEnv struct {
	api    *APIHandler
	db     *sqldb.DB
	csv    *csvlog.Log
	mailer *stubDispatcher
}

// stubDispatcher records notifications and reports a fixed outcome.
type stubDispatcher struct {
	sent    []*mail.Message
	outcome mail.Outcome
}

func (s *stubDispatcher) Send(_ context.Context, msg *mail.Message) mail.Outcome {
	s.sent = append(s.sent, msg)
	return s.outcome
}

// newTestEnv wires the real lead store over a temporary SQLite database and
// CSV file. Mail is stubbed to report "not sent".
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := sqldb.Open(sqldb.DriverSQLite, filepath.Join(dir, "leads.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	csv := csvlog.New(filepath.Join(dir, "leads.csv"))
	store := lead.NewStore(db, csv)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}

	mailer := &stubDispatcher{outcome: mail.Outcome{Err: mail.ErrNoCredentials}}
	svc := lead.NewService(store, mailer, nil)
	return &testEnv{
		api:    NewAPIHandler(svc, 1<<20),
		db:     db,
		csv:    csv,
		mailer: mailer,
	}
}

// failingSaver always fails persistence.
type failingSaver struct{}

func (failingSaver) Save(context.Context, string, string, string) (*models.Lead, error) {
	return nil, errors.New("lead storage failure: disk I/O error")
}

func postJSON(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

type testResponse struct {
	OK        bool   `json:"ok"`
	ID        int64  `json:"id"`
	CreatedAt string `json:"created_at"`
	EmailSent bool   `json:"email_sent"`
	Error     string `json:"error"`
}

func parseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	return resp
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
