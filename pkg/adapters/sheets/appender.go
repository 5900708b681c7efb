// Package sheets appends booking rows to a Google Sheets spreadsheet.
//
// The spreadsheet is addressed either by ID or by its title, which is looked up
// through the Drive API among the files shared with the service account. Rows
// always go to the first worksheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/aretw0/intake/internal/logging"
	"github.com/aretw0/intake/pkg/domain"
)

const (
	// DefaultSpreadsheetName is the spreadsheet title looked up when no ID is given.
	DefaultSpreadsheetName = "MY_Dvag"

	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
)

// ErrSpreadsheetNotFound is returned when no spreadsheet with the configured title
// is visible to the service account.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// target is the resolved destination of appended rows.
type target struct {
	id    string
	title string
}

// Appender implements ports.RecordAppender on top of the Sheets API.
type Appender struct {
	sheets *sheets.Service
	drive  *drive.Service

	name    string
	id      string
	account string
	logger  *slog.Logger

	resolveAttempts int
	resolveBackoff  time.Duration

	mu     sync.Mutex
	target *target
}

// Option configures an Appender.
type Option func(*Appender)

// WithSpreadsheetName sets the title looked up through Drive.
func WithSpreadsheetName(name string) Option {
	return func(a *Appender) {
		if name != "" {
			a.name = name
		}
	}
}

// WithSpreadsheetID addresses the spreadsheet directly and skips the Drive lookup.
func WithSpreadsheetID(id string) Option {
	return func(a *Appender) {
		a.id = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Appender) {
		a.logger = logger
	}
}

// WithResolveRetry controls how often the spreadsheet lookup is attempted.
// Only the lookup is retried; appends are attempted once.
func WithResolveRetry(attempts int, backoff time.Duration) Option {
	return func(a *Appender) {
		if attempts > 0 {
			a.resolveAttempts = attempts
		}
		a.resolveBackoff = backoff
	}
}

// New authenticates with the service-account bundle and returns an Appender.
func New(ctx context.Context, bundle domain.CredentialBundle, opts ...Option) (*Appender, error) {
	if len(bundle.JSON) == 0 {
		return nil, domain.ErrMissingCredentials
	}
	jwt, err := google.JWTConfigFromJSON(bundle.JSON, sheets.SpreadsheetsScope, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account credentials: %w", err)
	}
	// Token refreshes outlive the startup context.
	auth := option.WithTokenSource(jwt.TokenSource(context.WithoutCancel(ctx)))

	sheetsSvc, err := sheets.NewService(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}

	a := NewFromServices(sheetsSvc, driveSvc, opts...)
	a.account = bundle.ClientEmail
	return a, nil
}

// NewFromServices wraps already configured API clients.
func NewFromServices(sheetsSvc *sheets.Service, driveSvc *drive.Service, opts ...Option) *Appender {
	a := &Appender{
		sheets:          sheetsSvc,
		drive:           driveSvc,
		name:            DefaultSpreadsheetName,
		logger:          logging.NewNop(),
		resolveAttempts: 3,
		resolveBackoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Append writes row as a new line after the last row of the first worksheet.
func (a *Appender) Append(ctx context.Context, row []string) error {
	t, err := a.resolve(ctx)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	_, err = a.sheets.Spreadsheets.Values.
		Append(t.id, a1Range(t.title), &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", t.title, err)
	}
	return nil
}

// Ping checks that the spreadsheet can be opened with the current credentials.
func (a *Appender) Ping(ctx context.Context) error {
	a.mu.Lock()
	cached := a.target
	a.mu.Unlock()

	if cached == nil {
		_, err := a.resolve(ctx)
		return err
	}
	_, err := a.sheets.Spreadsheets.Get(cached.id).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet %s: %w", cached.id, err)
	}
	return nil
}

// Spreadsheet returns the resolved spreadsheet ID and worksheet title, if any.
func (a *Appender) Spreadsheet() (id, worksheet string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.target == nil {
		return "", "", false
	}
	return a.target.id, a.target.title, true
}

func (a *Appender) resolve(ctx context.Context) (*target, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.target != nil {
		return a.target, nil
	}

	backoff := a.resolveBackoff
	var err error
	for attempt := 1; attempt <= a.resolveAttempts; attempt++ {
		var t *target
		t, err = a.lookup(ctx)
		if err == nil {
			a.logger.Info("Spreadsheet resolved", "spreadsheet_id", t.id, "worksheet", t.title)
			a.target = t
			return t, nil
		}
		if errors.Is(err, ErrSpreadsheetNotFound) || attempt == a.resolveAttempts {
			break
		}
		a.logger.Warn("Spreadsheet lookup failed, retrying", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if !errors.Is(err, ErrSpreadsheetNotFound) {
		err = fmt.Errorf("%w: %w", domain.ErrSinkUnavailable, err)
	}
	return nil, err
}

func (a *Appender) lookup(ctx context.Context) (*target, error) {
	id := a.id
	if id == "" {
		q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
			strings.ReplaceAll(a.name, "'", `\'`), spreadsheetMimeType)
		list, err := a.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("search spreadsheet %q: %w", a.name, err)
		}
		if len(list.Files) == 0 {
			if a.account != "" {
				return nil, fmt.Errorf("%w: %q (is it shared with %s?)", ErrSpreadsheetNotFound, a.name, a.account)
			}
			return nil, fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, a.name)
		}
		id = list.Files[0].Id
	}

	ss, err := a.sheets.Spreadsheets.Get(id).Fields("spreadsheetId", "sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", id, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", id)
	}
	return &target{id: id, title: ss.Sheets[0].Properties.Title}, nil
}

func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!A1"
}
