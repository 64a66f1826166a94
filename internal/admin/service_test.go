package admin

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/auth"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) DonationsPerDay(ctx context.Context, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockRepository) MatchesPerMonth(ctx context.Context, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(map[string]int), args.Error(1)
}

type fakeCounter struct {
	counts map[string]int
	err    error
	calls  atomic.Int32
}

func (f *fakeCounter) CountByStatus(context.Context) (map[string]int, error) {
	f.calls.Add(1)
	return f.counts, f.err
}

type fakeUsers struct {
	byRole map[auth.Role]int
	users  []auth.User
	filter auth.UserFilter
}

func (f *fakeUsers) CountUsersByRole(context.Context) (map[auth.Role]int, error) {
	return f.byRole, nil
}

func (f *fakeUsers) ListUsers(_ context.Context, filter auth.UserFilter) ([]auth.User, error) {
	f.filter = filter
	return f.users, nil
}

type fakeCertificates int

func (f fakeCertificates) Count(context.Context) (int, error) { return int(f), nil }

var fixedNow = time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC)

type fixture struct {
	repo      *MockRepository
	donations *fakeCounter
	users     *fakeUsers
	service   *adminService
}

func newFixture() *fixture {
	f := &fixture{
		repo:      new(MockRepository),
		donations: &fakeCounter{counts: map[string]int{"pending": 2, "approved": 3, "completed": 1}},
		users:     &fakeUsers{byRole: map[auth.Role]int{auth.RoleDonor: 4, auth.RoleReceiver: 2, auth.RoleAdmin: 1}},
	}
	sources := Sources{
		Users:        f.users,
		Donations:    f.donations,
		Requests:     &fakeCounter{counts: map[string]int{"pending": 1, "matched": 1}},
		Interests:    &fakeCounter{counts: map[string]int{}},
		Matches:      &fakeCounter{counts: map[string]int{"approved": 1, "completed": 2}},
		Certificates: fakeCertificates(2),
	}
	svc := NewService(f.repo, sources, time.Minute, zap.NewNop()).(*adminService)
	svc.now = func() time.Time { return fixedNow }
	f.service = svc
	return f
}

func TestDashboardAggregates(t *testing.T) {
	f := newFixture()
	defer f.service.Close()

	dayStart := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	f.repo.On("DonationsPerDay", mock.Anything, dayStart).Return(map[string]int{"2026-03-08": 1, "2026-03-14": 4}, nil)
	f.repo.On("MatchesPerMonth", mock.Anything, monthStart).Return(map[string]int{"2025-12": 2, "2026-03": 1}, nil)

	d, err := f.service.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Totals{Users: 7, Donations: 6, Requests: 2, Interests: 0, Matches: 3, Certificates: 2}, d.Totals)
	assert.Equal(t, map[string]int{"donor": 4, "receiver": 2, "admin": 1}, d.UsersByRole)
	assert.Equal(t, f.donations.counts, d.DonationsByStatus)

	require.Len(t, d.DonationsLast7Days, 7)
	assert.Equal(t, "Mar 8", d.DonationsLast7Days[0].Label)
	assert.Equal(t, 1, d.DonationsLast7Days[0].Count)
	assert.Equal(t, 0, d.DonationsLast7Days[3].Count)
	assert.Equal(t, "Mar 14", d.DonationsLast7Days[6].Label)
	assert.Equal(t, 4, d.DonationsLast7Days[6].Count)

	require.Len(t, d.MatchesLast6Months, 6)
	assert.Equal(t, "Oct 2025", d.MatchesLast6Months[0].Label)
	assert.Equal(t, 2, d.MatchesLast6Months[2].Count)
	assert.Equal(t, "Mar 2026", d.MatchesLast6Months[5].Label)
	assert.Equal(t, 1, d.MatchesLast6Months[5].Count)
}

func TestDashboardIsCached(t *testing.T) {
	f := newFixture()
	defer f.service.Close()
	f.repo.On("DonationsPerDay", mock.Anything, mock.Anything).Return(map[string]int{}, nil)
	f.repo.On("MatchesPerMonth", mock.Anything, mock.Anything).Return(map[string]int{}, nil)

	_, err := f.service.Dashboard(context.Background())
	require.NoError(t, err)
	_, err = f.service.Dashboard(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.donations.calls.Load())

	require.NoError(t, f.service.RefreshDashboard(context.Background()))
	assert.EqualValues(t, 2, f.donations.calls.Load())
}

func TestDashboardFailsWhenAnyAggregateFails(t *testing.T) {
	f := newFixture()
	defer f.service.Close()
	f.donations.err = errors.New("connection reset")
	f.repo.On("DonationsPerDay", mock.Anything, mock.Anything).Return(map[string]int{}, nil).Maybe()
	f.repo.On("MatchesPerMonth", mock.Anything, mock.Anything).Return(map[string]int{}, nil).Maybe()

	_, err := f.service.Dashboard(context.Background())
	assert.ErrorContains(t, err, "donations by status")
	assert.Zero(t, f.service.cache.Size())
}

func TestStatusCountsMatchSources(t *testing.T) {
	f := newFixture()
	defer f.service.Close()

	counts, err := f.service.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Donations["approved"])
	assert.Equal(t, 2, counts.Matches["completed"])
	assert.Empty(t, counts.Interests)
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache[int](time.Minute)
	defer c.Close()
	now := fixedNow
	c.now = func() time.Time { return now }

	c.Set("k", 42)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	c.removeExpired()
	assert.Zero(t, c.Size())
}
