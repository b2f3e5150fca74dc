package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/upstream"
)

type fakePersonSource struct {
	persons         map[int64]upstream.Person
	personsErr      error
	transactions    []upstream.Transaction
	transactionsErr error
	batchCalls      [][]int64
}

func (f *fakePersonSource) PersonsBatch(ctx context.Context, ids []int64, opts upstream.PersonFetchOptions) ([]upstream.Person, error) {
	f.batchCalls = append(f.batchCalls, ids)
	if f.personsErr != nil {
		return nil, f.personsErr
	}
	var out []upstream.Person
	for _, id := range ids {
		if p, ok := f.persons[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePersonSource) Transactions(ctx context.Context, seasonYear int) ([]upstream.Transaction, error) {
	if f.transactionsErr != nil {
		return nil, f.transactionsErr
	}
	return f.transactions, nil
}

func (f *fakePersonSource) Configured() bool { return true }

func newPersonServiceForTest(source *fakePersonSource) *PersonService {
	return NewPersonService(source, &memoryStore{}, &memoryStore{}, zap.NewNop(), PersonServiceConfig{SeasonYear: 2026})
}

func familyFixture() map[int64]upstream.Person {
	return map[int64]upstream.Person{
		101: {
			ID:          101,
			Name:        upstream.PersonName{First: "Ada", Last: "Moss"},
			DateOfBirth: "2016-04-02T00:00:00",
			Relatives:   []upstream.Relative{{ID: 900, Name: "Rae Moss", IsGuardian: true}},
			CamperDetails: &upstream.CamperDetails{
				CampGradeName: "3rd Grade",
			},
		},
		102: {
			ID:          102,
			Name:        upstream.PersonName{First: "Ben", Last: "Moss"},
			DateOfBirth: "2018-09-14T00:00:00",
			Relatives:   []upstream.Relative{{ID: 900, Name: "Rae Moss", IsGuardian: true}},
		},
		103: {
			ID:          103,
			Name:        upstream.PersonName{First: "Cal", Last: "Moss"},
			DateOfBirth: "2019-01-20T00:00:00",
			Relatives:   []upstream.Relative{{ID: 900, Name: "Rae Moss", IsGuardian: true}},
		},
		900: {
			ID:   900,
			Name: upstream.PersonName{First: "Rae", Last: "Moss"},
			ContactDetails: &upstream.ContactDetails{
				Emails: []string{"rae@example.com"},
				Phones: []string{"555-0101"},
			},
			Relatives: []upstream.Relative{
				{ID: 101, IsWard: true},
				{ID: 102, IsWard: true},
				{ID: 103, IsWard: true},
			},
		},
	}
}

func TestPersonServiceDetailResolvesFamily(t *testing.T) {
	source := &fakePersonSource{persons: familyFixture()}
	svc := newPersonServiceForTest(source)

	detail, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "Ada", detail.FirstName)
	assert.Equal(t, "3rd Grade", detail.Grade)
	require.NotNil(t, detail.DateOfBirth)
	assert.Equal(t, 2016, detail.DateOfBirth.Year())
	require.Len(t, detail.Guardians, 1)
	assert.Equal(t, "rae@example.com", detail.Guardians[0].Email)
	assert.Equal(t, []int64{102, 103}, detail.SiblingIDs)
}

func TestPersonServiceCachesAcrossCalls(t *testing.T) {
	source := &fakePersonSource{persons: familyFixture()}
	svc := newPersonServiceForTest(source)

	_, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	calls := len(source.batchCalls)

	_, err = svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, calls, len(source.batchCalls), "second lookup must be served from cache")
}

func TestPersonServicePlaceholderForMissing(t *testing.T) {
	source := &fakePersonSource{persons: familyFixture()}
	svc := newPersonServiceForTest(source)

	details, err := svc.Details(context.Background(), []int64{101, 999})
	require.NoError(t, err)
	assert.True(t, details[999].Placeholder)
	calls := len(source.batchCalls)

	_, err = svc.Details(context.Background(), []int64{999})
	require.NoError(t, err)
	assert.Equal(t, calls, len(source.batchCalls), "placeholders must not be refetched")

	_, err = svc.Detail(context.Background(), 999)
	require.Error(t, err)
}

func TestPersonServiceGuardianFailureKeepsCampers(t *testing.T) {
	source := &fakePersonSource{persons: familyFixture()}
	svc := newPersonServiceForTest(source)

	// First batch returns campers, second batch (guardians) fails.
	fetched := false
	base := *source
	svc.source = sourceFunc(func(ctx context.Context, ids []int64, opts upstream.PersonFetchOptions) ([]upstream.Person, error) {
		if opts.ContactDetails {
			return nil, errors.New("guardians unavailable")
		}
		fetched = true
		var out []upstream.Person
		for _, id := range ids {
			if p, ok := base.persons[id]; ok {
				out = append(out, p)
			}
		}
		return out, nil
	})

	detail, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	assert.True(t, fetched)
	require.Len(t, detail.Guardians, 1)
	assert.Equal(t, "Rae Moss", detail.Guardians[0].Name)
	assert.Empty(t, detail.Guardians[0].Email)
}

// sourceFunc adapts a function to the personSource interface for tests.
type sourceFunc func(ctx context.Context, ids []int64, opts upstream.PersonFetchOptions) ([]upstream.Person, error)

func (f sourceFunc) PersonsBatch(ctx context.Context, ids []int64, opts upstream.PersonFetchOptions) ([]upstream.Person, error) {
	return f(ctx, ids, opts)
}

func (f sourceFunc) Transactions(ctx context.Context, seasonYear int) ([]upstream.Transaction, error) {
	return nil, nil
}

func (f sourceFunc) Configured() bool { return true }

func TestYoungestEnrolledSibling(t *testing.T) {
	source := &fakePersonSource{persons: familyFixture()}
	svc := newPersonServiceForTest(source)

	_, err := svc.Details(context.Background(), []int64{101, 102, 103})
	require.NoError(t, err)
	detail, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)

	snap := &models.Snapshot{Participants: map[string]map[int][]int64{
		"Pioneers":   {2: {101, 102}},
		"Explorers":  {2: {103}},
		"Navigators": {3: {102}},
	}}

	// Both younger siblings are enrolled in week 2; Cal (103) is youngest.
	sib := svc.YoungestEnrolledSibling(*detail, 2, snap)
	require.NotNil(t, sib)
	assert.Equal(t, int64(103), sib.ID)
	assert.Equal(t, "Explorers", sib.Program)

	// Only Ben is enrolled in week 3.
	sib = svc.YoungestEnrolledSibling(*detail, 3, snap)
	require.NotNil(t, sib)
	assert.Equal(t, int64(102), sib.ID)

	// Nobody enrolled in week 5.
	assert.Nil(t, svc.YoungestEnrolledSibling(*detail, 5, snap))

	// An older sibling never qualifies: from Ben's view Ada is older, Cal younger.
	ben, err := svc.Detail(context.Background(), 102)
	require.NoError(t, err)
	sib = svc.YoungestEnrolledSibling(*ben, 2, snap)
	require.NotNil(t, sib)
	assert.Equal(t, int64(103), sib.ID)
}

func TestSyncBACBuildsMapping(t *testing.T) {
	source := &fakePersonSource{
		persons: familyFixture(),
		transactions: []upstream.Transaction{
			{PersonID: 101, Description: "Before and After Care - Week 2", Amount: 80},
			{PersonID: 101, Description: "Before and After Care - Week 3", Amount: 80},
			{PersonID: 101, Description: "Before and After Care - Week 3", Amount: 80},
			{PersonID: 102, Description: "before and after care week 1"},
			{PersonID: 102, Description: "Before and After Care - Week 4", IsReversed: true},
			{PersonID: 104, Description: "Before and After Care - Week 1"},
			{PersonID: 105, Description: "Trading post balance"},
		},
	}
	svc := newPersonServiceForTest(source)

	_, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	require.NoError(t, svc.SyncBAC(context.Background(), true))

	details, err := svc.Details(context.Background(), []int64{101, 102, 104})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, details[101].BACWeeks, "duplicates collapse to one entry per week")
	assert.Equal(t, []int{1}, details[102].BACWeeks, "matching is case-insensitive")
	assert.True(t, details[104].Placeholder, "finance-only persons get a placeholder entry")
	assert.Equal(t, []int{1}, details[104].BACWeeks)
	assert.False(t, svc.BACSyncedAt().IsZero())
}

func TestSyncBACReversedAndUnrelatedIgnored(t *testing.T) {
	source := &fakePersonSource{
		persons: familyFixture(),
		transactions: []upstream.Transaction{
			{PersonID: 101, Description: "Before and After Care - Week 4", IsReversed: true},
			{PersonID: 101, Description: "Canteen deposit Week 4"},
			{PersonID: 101, Description: "Before and After Care - Week 99"},
		},
	}
	svc := newPersonServiceForTest(source)

	require.NoError(t, svc.SyncBAC(context.Background(), true))
	_, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)

	details, err := svc.Details(context.Background(), []int64{101})
	require.NoError(t, err)
	assert.Empty(t, details[101].BACWeeks)
}

func TestSyncBACTTLSkipsWithinWindow(t *testing.T) {
	source := &fakePersonSource{persons: familyFixture()}
	svc := newPersonServiceForTest(source)
	current := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	require.NoError(t, svc.SyncBAC(context.Background(), false))
	first := svc.BACSyncedAt()

	current = current.Add(10 * time.Minute)
	require.NoError(t, svc.SyncBAC(context.Background(), false))
	assert.Equal(t, first, svc.BACSyncedAt(), "sync within TTL is a no-op")

	current = current.Add(2 * time.Hour)
	require.NoError(t, svc.SyncBAC(context.Background(), false))
	assert.NotEqual(t, first, svc.BACSyncedAt())
}

func TestSyncBACFailureKeepsPreviousMapping(t *testing.T) {
	source := &fakePersonSource{
		persons: familyFixture(),
		transactions: []upstream.Transaction{
			{PersonID: 101, Description: "Before and After Care - Week 2"},
		},
	}
	svc := newPersonServiceForTest(source)

	_, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	require.NoError(t, svc.SyncBAC(context.Background(), true))

	source.transactionsErr = errors.New("finance endpoint down")
	require.Error(t, svc.SyncBAC(context.Background(), true))

	details, err := svc.Details(context.Background(), []int64{101})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, details[101].BACWeeks)
}

func TestSetShareGroupsReappliesToCache(t *testing.T) {
	source := &fakePersonSource{persons: familyFixture()}
	svc := newPersonServiceForTest(source)

	_, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)

	require.NoError(t, svc.SetShareGroups(map[int64]string{101: "Moss cousins"}))
	detail, err := svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "Moss cousins", detail.ShareGroupWith)

	require.NoError(t, svc.SetShareGroups(nil))
	detail, err = svc.Detail(context.Background(), 101)
	require.NoError(t, err)
	assert.Empty(t, detail.ShareGroupWith)
}
