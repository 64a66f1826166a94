package scheduler

import (
	"context"

	"go.uber.org/zap"
)

const backfillBatch = 50

type DashboardRefresher interface {
	RefreshDashboard(ctx context.Context) error
}

type CertificateBackfiller interface {
	Backfill(ctx context.Context, limit int) (int, error)
}

type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// DashboardRefreshJob keeps the admin dashboard cache warm
func DashboardRefreshJob(spec string, svc DashboardRefresher) Job {
	return Job{Name: "dashboard-refresh", Spec: spec, Run: svc.RefreshDashboard}
}

// CertificateBackfillJob issues certificates that failed at completion time
func CertificateBackfillJob(spec string, svc CertificateBackfiller, logger *zap.Logger) Job {
	return Job{
		Name: "certificate-backfill",
		Spec: spec,
		Run: func(ctx context.Context) error {
			issued, err := svc.Backfill(ctx, backfillBatch)
			if issued > 0 {
				logger.Info("Backfilled certificates", zap.Int("issued", issued))
			}
			return err
		},
	}
}

func TokenPurgeJob(spec string, svc TokenPurger, logger *zap.Logger) Job {
	return Job{
		Name: "token-purge",
		Spec: spec,
		Run: func(ctx context.Context) error {
			n, err := svc.PurgeExpiredTokens(ctx)
			if n > 0 {
				logger.Info("Purged revoked tokens", zap.Int64("count", n))
			}
			return err
		},
	}
}
