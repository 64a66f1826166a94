package admin

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"givehub/portal-backend/internal/auth"
	"givehub/portal-backend/internal/metrics"
)

const dashboardKey = "dashboard"

// StatusCounter is implemented by every lifecycle service
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type UserDirectory interface {
	CountUsersByRole(ctx context.Context) (map[auth.Role]int, error)
	ListUsers(ctx context.Context, filter auth.UserFilter) ([]auth.User, error)
}

type CertificateCounter interface {
	Count(ctx context.Context) (int, error)
}

// Sources are the services the dashboard reads from
type Sources struct {
	Users        UserDirectory
	Donations    StatusCounter
	Requests     StatusCounter
	Interests    StatusCounter
	Matches      StatusCounter
	Certificates CertificateCounter
}

type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	// RefreshDashboard recomputes the dashboard and replaces the cached copy
	RefreshDashboard(ctx context.Context) error
	StatusCounts(ctx context.Context) (*StatusCounts, error)
	ListUsers(ctx context.Context, filter auth.UserFilter) ([]auth.User, error)
	Close()
}

type adminService struct {
	repo    Repository
	sources Sources
	cache   *TTLCache[*Dashboard]
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, sources Sources, cacheTTL time.Duration, logger *zap.Logger) Service {
	return &adminService{
		repo:    repo,
		sources: sources,
		cache:   NewTTLCache[*Dashboard](cacheTTL),
		logger:  logger,
		now:     time.Now,
	}
}

func (s *adminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	if cached, ok := s.cache.Get(dashboardKey); ok {
		metrics.DashboardCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.DashboardCacheLookups.WithLabelValues("miss").Inc()

	d, err := s.computeDashboard(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(dashboardKey, d)
	return d, nil
}

func (s *adminService) RefreshDashboard(ctx context.Context) error {
	d, err := s.computeDashboard(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(dashboardKey, d)
	return nil
}

// computeDashboard fetches the independent aggregates concurrently; the first
// failure cancels the rest
func (s *adminService) computeDashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)

	var (
		byRole       map[auth.Role]int
		counts       StatusCounts
		certificates int
		perDay       map[string]int
		perMonth     map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byRole, err = s.sources.Users.CountUsersByRole(gctx)
		return wrap("users by role", err)
	})
	g.Go(func() (err error) {
		counts.Donations, err = s.sources.Donations.CountByStatus(gctx)
		return wrap("donations by status", err)
	})
	g.Go(func() (err error) {
		counts.Requests, err = s.sources.Requests.CountByStatus(gctx)
		return wrap("requests by status", err)
	})
	g.Go(func() (err error) {
		counts.Interests, err = s.sources.Interests.CountByStatus(gctx)
		return wrap("interests by status", err)
	})
	g.Go(func() (err error) {
		counts.Matches, err = s.sources.Matches.CountByStatus(gctx)
		return wrap("matches by status", err)
	})
	g.Go(func() (err error) {
		certificates, err = s.sources.Certificates.Count(gctx)
		return wrap("certificates", err)
	})
	g.Go(func() (err error) {
		perDay, err = s.repo.DonationsPerDay(gctx, dayStart)
		return wrap("donations per day", err)
	})
	g.Go(func() (err error) {
		perMonth, err = s.repo.MatchesPerMonth(gctx, monthStart)
		return wrap("matches per month", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	usersByRole := make(map[string]int, len(byRole))
	users := 0
	for role, n := range byRole {
		usersByRole[string(role)] = n
		users += n
	}

	return &Dashboard{
		Totals: Totals{
			Users:        users,
			Donations:    sum(counts.Donations),
			Requests:     sum(counts.Requests),
			Interests:    sum(counts.Interests),
			Matches:      sum(counts.Matches),
			Certificates: certificates,
		},
		UsersByRole:        usersByRole,
		DonationsByStatus:  counts.Donations,
		RequestsByStatus:   counts.Requests,
		InterestsByStatus:  counts.Interests,
		MatchesByStatus:    counts.Matches,
		DonationsLast7Days: dailyBuckets(dayStart, 7, perDay),
		MatchesLast6Months: monthlyBuckets(monthStart, 6, perMonth),
		GeneratedAt:        now,
	}, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func sum(m map[string]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// dailyBuckets returns n consecutive days from start; missing days count zero
func dailyBuckets(start time.Time, n int, counts map[string]int) []Bucket {
	buckets := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i)
		buckets = append(buckets, Bucket{
			Label: day.Format("Jan 2"),
			Start: day,
			Count: counts[day.Format("2006-01-02")],
		})
	}
	return buckets
}

func monthlyBuckets(start time.Time, n int, counts map[string]int) []Bucket {
	buckets := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		month := start.AddDate(0, i, 0)
		buckets = append(buckets, Bucket{
			Label: month.Format("Jan 2006"),
			Start: month,
			Count: counts[month.Format("2006-01")],
		})
	}
	return buckets
}

func (s *adminService) StatusCounts(ctx context.Context) (*StatusCounts, error) {
	var counts StatusCounts

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts.Donations, err = s.sources.Donations.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Requests, err = s.sources.Requests.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Interests, err = s.sources.Interests.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Matches, err = s.sources.Matches.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (s *adminService) ListUsers(ctx context.Context, filter auth.UserFilter) ([]auth.User, error) {
	return s.sources.Users.ListUsers(ctx, filter)
}

func (s *adminService) Close() {
	s.cache.Close()
}
