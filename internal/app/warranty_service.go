package app

import (
	"context"
	"time"

	"asset_lifecycle_scheduler/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// WarrantyRepository expires warranties past their end date.
type WarrantyRepository interface {
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type WarrantyService struct {
	repo   WarrantyRepository
	logger *logrus.Entry
}

func NewWarrantyService(repo WarrantyRepository, logger *logrus.Entry) *WarrantyService {
	return &WarrantyService{repo: repo, logger: logger}
}

// ExpireWarranties flips active warranties with end_date before now to expired.
func (s *WarrantyService) ExpireWarranties(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.ExpireEnded(ctx, now)
	if err != nil {
		return 0, err
	}
	metrics.AddWarrantiesExpired(n)
	if n > 0 {
		s.logger.WithField("expired", n).Info("Expired warranties")
	}
	return n, nil
}
