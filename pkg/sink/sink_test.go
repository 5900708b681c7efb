package sink_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAppender struct {
	mu      sync.Mutex
	rows    [][]string
	err     error
	pingErr error
}

func (f *fakeAppender) Append(ctx context.Context, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, row)
	return f.err
}

func (f *fakeAppender) Ping(ctx context.Context) error { return f.pingErr }

var timestampPattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}:\d{2}$`)

func booking() domain.Booking {
	return domain.Booking{UserID: "u1", Topic: "4", Name: "Anna", Phone: "+49 151 0000", Date: "10.10.2025"}
}

func TestSink_CommitAppendsOneRow(t *testing.T) {
	app := &fakeAppender{}
	s := sink.New(app)

	rec, err := s.Commit(context.Background(), booking())
	require.NoError(t, err)

	require.Len(t, app.rows, 1)
	row := app.rows[0]
	require.Len(t, row, 5)
	assert.Equal(t, []string{"4", "Anna", "+49 151 0000", "10.10.2025"}, row[:4])
	assert.Regexp(t, timestampPattern, row[4])
	assert.Equal(t, rec.Row(), row)
}

func TestSink_TimestampInConfiguredZone(t *testing.T) {
	app := &fakeAppender{}
	utc := time.Date(2025, 1, 15, 23, 30, 5, 0, time.UTC)
	s := sink.New(app,
		sink.WithClock(func() time.Time { return utc }),
		sink.WithLocation(sink.MustLoadLocation("CET")),
	)

	_, err := s.Commit(context.Background(), booking())
	require.NoError(t, err)
	assert.Equal(t, "16.01.2025 00:30:05", app.rows[0][4], "CET is UTC+1 in winter")

	moscow := sink.New(app,
		sink.WithClock(func() time.Time { return utc }),
		sink.WithLocation(sink.MustLoadLocation("Europe/Moscow")),
	)
	_, err = moscow.Commit(context.Background(), booking())
	require.NoError(t, err)
	assert.Equal(t, "16.01.2025 02:30:05", app.rows[1][4])
}

func TestSink_FailureIsSinkErrorWithoutRetry(t *testing.T) {
	cause := errors.New("quota exceeded")
	app := &fakeAppender{err: cause}

	var events []*domain.CommitEvent
	s := sink.New(app, sink.WithLifecycleHooks(domain.LifecycleHooks{
		OnCommit: func(_ context.Context, e *domain.CommitEvent) { events = append(events, e) },
	}))

	_, err := s.Commit(context.Background(), booking())
	require.Error(t, err)

	var sinkErr *domain.SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "append", sinkErr.Op)
	assert.ErrorIs(t, err, cause)

	assert.Len(t, app.rows, 1, "a failed append is not retried")
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].UserID)
	assert.ErrorIs(t, events[0].Err, cause)
}

func TestSink_Ping(t *testing.T) {
	assert.NoError(t, sink.New(&fakeAppender{}).Ping(context.Background()))

	err := sink.New(&fakeAppender{pingErr: domain.ErrSinkUnavailable}).Ping(context.Background())
	var sinkErr *domain.SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "ping", sinkErr.Op)
	assert.ErrorIs(t, err, domain.ErrSinkUnavailable)
}

func TestLoadLocation(t *testing.T) {
	loc, err := sink.LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, "CET", loc.String())

	_, err = sink.LoadLocation("Mars/Olympus")
	assert.Error(t, err)
}
