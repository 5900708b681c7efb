package sheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/aretw0/intake/pkg/adapters/sheets"
	"github.com/aretw0/intake/pkg/domain"
)

// fakeGoogle serves the handful of Drive and Sheets endpoints the appender uses.
type fakeGoogle struct {
	mu          sync.Mutex
	files       []string
	title       string
	failAppend  bool
	failLookups int

	searches []string
	gets     int
	appends  []appendCall
}

type appendCall struct {
	path   string
	query  map[string]string
	values [][]string
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasPrefix(r.URL.Path, "/drive/v3/files"):
		f.searches = append(f.searches, r.URL.Query().Get("q"))
		if f.failLookups > 0 {
			f.failLookups--
			writeError(w, http.StatusServiceUnavailable)
			return
		}
		var files []map[string]string
		for _, id := range f.files {
			files = append(files, map[string]string{"id": id, "name": "MY_Dvag"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"files": files})

	case strings.HasSuffix(r.URL.Path, ":append"):
		var body struct {
			Values [][]string `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.appends = append(f.appends, appendCall{
			path: r.URL.Path,
			query: map[string]string{
				"valueInputOption": r.URL.Query().Get("valueInputOption"),
				"insertDataOption": r.URL.Query().Get("insertDataOption"),
			},
			values: body.Values,
		})
		if f.failAppend {
			writeError(w, http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})

	case strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/"):
		f.gets++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-1",
			"sheets":        []any{map[string]any{"properties": map[string]any{"title": f.title}}},
		})

	default:
		http.NotFound(w, r)
	}
}

func writeError(w http.ResponseWriter, code int) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": http.StatusText(code)},
	})
}

func newAppender(t *testing.T, fake *fakeGoogle, opts ...sheets.Option) *sheets.Appender {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	sheetsSvc, err := gsheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	driveSvc, err := drive.NewService(ctx, option.WithEndpoint(srv.URL+"/drive/v3/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return sheets.NewFromServices(sheetsSvc, driveSvc, opts...)
}

func TestAppender_AppendsToFirstWorksheet(t *testing.T) {
	fake := &fakeGoogle{files: []string{"sheet-1"}, title: "Лист1"}
	a := newAppender(t, fake)

	row := []string{"=HYPERLINK(\"http://x\")", "Anna", "0151 0000", "10.10.2025", "16.01.2025 00:30:05"}
	require.NoError(t, a.Append(context.Background(), row))

	require.Len(t, fake.appends, 1)
	call := fake.appends[0]
	assert.Contains(t, call.path, "/v4/spreadsheets/sheet-1/values/")
	assert.Contains(t, call.path, "'Лист1'!A1")
	assert.Equal(t, "RAW", call.query["valueInputOption"], "answers are stored as typed, never parsed")
	assert.Equal(t, "INSERT_ROWS", call.query["insertDataOption"])
	assert.Equal(t, [][]string{row}, call.values)

	require.Len(t, fake.searches, 1)
	assert.Contains(t, fake.searches[0], "name = 'MY_Dvag'")
	assert.Contains(t, fake.searches[0], "application/vnd.google-apps.spreadsheet")

	id, worksheet, ok := a.Spreadsheet()
	assert.True(t, ok)
	assert.Equal(t, "sheet-1", id)
	assert.Equal(t, "Лист1", worksheet)
}

func TestAppender_ResolvesOnce(t *testing.T) {
	fake := &fakeGoogle{files: []string{"sheet-1"}, title: "Sheet1"}
	a := newAppender(t, fake)

	for i := 0; i < 3; i++ {
		require.NoError(t, a.Append(context.Background(), []string{"x"}))
	}
	assert.Len(t, fake.searches, 1)
	assert.Equal(t, 1, fake.gets)
	assert.Len(t, fake.appends, 3)
}

func TestAppender_FailedAppendIsNotRetried(t *testing.T) {
	fake := &fakeGoogle{files: []string{"sheet-1"}, title: "Sheet1", failAppend: true}
	a := newAppender(t, fake)

	err := a.Append(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Len(t, fake.appends, 1)
}

func TestAppender_SpreadsheetNotFound(t *testing.T) {
	fake := &fakeGoogle{title: "Sheet1"}
	a := newAppender(t, fake, sheets.WithSpreadsheetName("Missing"), sheets.WithResolveRetry(3, time.Millisecond))

	err := a.Ping(context.Background())
	require.ErrorIs(t, err, sheets.ErrSpreadsheetNotFound)
	assert.Len(t, fake.searches, 1, "not found is final")
	assert.Contains(t, fake.searches[0], "name = 'Missing'")
}

func TestAppender_LookupIsRetried(t *testing.T) {
	fake := &fakeGoogle{files: []string{"sheet-1"}, title: "Sheet1", failLookups: 2}
	a := newAppender(t, fake, sheets.WithResolveRetry(3, time.Millisecond))

	require.NoError(t, a.Ping(context.Background()))
	assert.Len(t, fake.searches, 3)
}

func TestAppender_LookupGivesUp(t *testing.T) {
	fake := &fakeGoogle{files: []string{"sheet-1"}, title: "Sheet1", failLookups: 5}
	a := newAppender(t, fake, sheets.WithResolveRetry(2, time.Millisecond))

	err := a.Append(context.Background(), []string{"x"})
	require.ErrorIs(t, err, domain.ErrSinkUnavailable)
	assert.Len(t, fake.searches, 2)
	assert.Empty(t, fake.appends)
}

func TestAppender_SpreadsheetIDSkipsDrive(t *testing.T) {
	fake := &fakeGoogle{title: "Sheet1"}
	a := newAppender(t, fake, sheets.WithSpreadsheetID("sheet-1"))

	require.NoError(t, a.Ping(context.Background()))
	require.NoError(t, a.Ping(context.Background()))
	assert.Empty(t, fake.searches)
	assert.Equal(t, 2, fake.gets)
}

func TestNew_RejectsBadCredentials(t *testing.T) {
	_, err := sheets.New(context.Background(), domain.CredentialBundle{})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)

	_, err = sheets.New(context.Background(), domain.CredentialBundle{JSON: []byte(`{"type":"authorized_user"}`)})
	assert.Error(t, err)
}
