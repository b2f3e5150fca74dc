package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/parser"
)

type fakeEnrollmentSource struct {
	records    []models.EnrollmentRecord
	err        error
	configured bool
	calls      int32
}

func (f *fakeEnrollmentSource) EnrollmentRecords(ctx context.Context, p *parser.Parser, cal models.SeasonCalendar) ([]models.EnrollmentRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeEnrollmentSource) Configured() bool { return f.configured }

// memoryStore is an in-memory stand-in for the on-disk JSON file.
type memoryStore struct {
	data []byte
}

func (m *memoryStore) Load(dest interface{}) error {
	if m.data == nil {
		return os.ErrNotExist
	}
	return json.Unmarshal(m.data, dest)
}

func (m *memoryStore) Save(value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data = raw
	return nil
}

func testRecords(t *testing.T) []models.EnrollmentRecord {
	t.Helper()
	enrolledAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	var records []models.EnrollmentRecord
	for _, week := range []int{1, 2, 3} {
		rec, err := models.NewEnrollmentRecord(101, "Pioneers", week, enrolledAt, models.EnrollmentStatusEnrolled)
		require.NoError(t, err)
		records = append(records, rec)
	}
	rec, err := models.NewEnrollmentRecord(102, "Pioneers", 1, enrolledAt.Add(24*time.Hour), models.EnrollmentStatusEnrolled)
	require.NoError(t, err)
	return append(records, rec)
}

func newSnapshotService(source *fakeEnrollmentSource, disk snapshotStore) *SnapshotService {
	return NewSnapshotService(SnapshotServiceParams{
		Source: source,
		Disk:   disk,
		Logger: zap.NewNop(),
	})
}

func TestSnapshotServiceFetchesWhenEmpty(t *testing.T) {
	source := &fakeEnrollmentSource{records: testRecords(t), configured: true}
	disk := &memoryStore{}
	svc := newSnapshotService(source, disk)

	snap, err := svc.Get(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	assert.Equal(t, []int64{101, 102}, snap.Roster("Pioneers", 1))
	assert.NotNil(t, disk.data, "fresh snapshot should be persisted to disk")
}

func TestSnapshotServiceServesFreshFromMemory(t *testing.T) {
	source := &fakeEnrollmentSource{records: testRecords(t), configured: true}
	svc := newSnapshotService(source, &memoryStore{})

	_, err := svc.Get(context.Background(), false)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls), "second call within TTL must not refetch")
}

func TestSnapshotServiceForceRefresh(t *testing.T) {
	source := &fakeEnrollmentSource{records: testRecords(t), configured: true}
	svc := newSnapshotService(source, &memoryStore{})

	_, err := svc.Get(context.Background(), false)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}

func TestSnapshotServiceExpiredTTLRefetches(t *testing.T) {
	source := &fakeEnrollmentSource{records: testRecords(t), configured: true}
	svc := newSnapshotService(source, &memoryStore{})
	current := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	_, err := svc.Get(context.Background(), false)
	require.NoError(t, err)

	current = current.Add(20 * time.Minute)
	_, err = svc.Get(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}

func TestSnapshotServiceStaleFallbackOnUpstreamFailure(t *testing.T) {
	source := &fakeEnrollmentSource{records: testRecords(t), configured: true}
	svc := newSnapshotService(source, &memoryStore{})
	current := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	first, err := svc.Get(context.Background(), false)
	require.NoError(t, err)

	source.err = errors.New("upstream down")
	current = current.Add(time.Hour)
	snap, err := svc.Get(context.Background(), false)
	require.NoError(t, err, "stale copy should mask the upstream failure")
	assert.Equal(t, first.FetchedAt, snap.FetchedAt)
}

func TestSnapshotServiceErrorWhenNothingCached(t *testing.T) {
	source := &fakeEnrollmentSource{err: errors.New("upstream down"), configured: true}
	svc := newSnapshotService(source, &memoryStore{})

	_, err := svc.Get(context.Background(), false)
	require.Error(t, err)

	_, err = svc.Cached(context.Background())
	require.Error(t, err)
}

func TestSnapshotServiceNotConfigured(t *testing.T) {
	source := &fakeEnrollmentSource{configured: false}
	svc := newSnapshotService(source, &memoryStore{})

	_, err := svc.Get(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&source.calls))
}

func TestSnapshotServiceLoadsFromDisk(t *testing.T) {
	disk := &memoryStore{}
	seeded := &models.Snapshot{
		FetchedAt:    time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC),
		Participants: map[string]map[int][]int64{"Pioneers": {1: {101}}},
	}
	require.NoError(t, disk.Save(seeded))

	source := &fakeEnrollmentSource{configured: true}
	svc := newSnapshotService(source, disk)
	svc.now = func() time.Time { return seeded.FetchedAt.Add(time.Minute) }

	snap, err := svc.Get(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, snap.Roster("Pioneers", 1))
	assert.Equal(t, int32(0), atomic.LoadInt32(&source.calls), "disk copy within TTL must not trigger a fetch")
}

func TestSnapshotServiceSingleFlight(t *testing.T) {
	source := &fakeEnrollmentSource{records: testRecords(t), configured: true}
	svc := newSnapshotService(source, &memoryStore{})

	// Simulate a refresh already in progress with no cached copy.
	svc.mu.Lock()
	svc.refreshing = true
	svc.refreshStarted = time.Now()
	svc.mu.Unlock()

	_, err := svc.Get(context.Background(), true)
	require.Error(t, err)

	// A flag older than the stuck timeout is ignored.
	svc.mu.Lock()
	svc.refreshStarted = time.Now().Add(-10 * time.Minute)
	svc.mu.Unlock()

	snap, err := svc.Get(context.Background(), true)
	require.NoError(t, err)
	assert.NotNil(t, snap)
}
