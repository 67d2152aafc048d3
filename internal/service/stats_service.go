package service

import (
	"context"
	"sort"

	"speechcheck/internal/models"
	"speechcheck/internal/repository"
)

// StatsService computes accuracy and confidence summaries on demand
type StatsService struct {
	statsRepo *repository.StatsRepository
}

// NewStatsService creates a new stats service
func NewStatsService(statsRepo *repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

// GetStats dispatches on groupBy, defaulting to sentence. The result is a
// []models.SentenceStats, []models.UserStats or []models.HourStats.
func (s *StatsService) GetStats(ctx context.Context, groupBy string) (any, error) {
	switch groupBy {
	case "", models.GroupBySentence:
		return s.BySentence(ctx)
	case models.GroupByUser:
		return s.ByUser(ctx)
	case models.GroupByHour:
		return s.ByHour(ctx)
	default:
		return nil, invalidField("groupBy", "groupBy must be sentence, user or hour")
	}
}

// BySentence returns one row per target item, best accuracy first. Items
// nobody attempted are included with zero metrics.
func (s *StatsService) BySentence(ctx context.Context) ([]models.SentenceStats, error) {
	stats, err := s.statsRepo.SentenceTotals(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	for i := range stats {
		stats[i].ComputeAccuracy()
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].AccuracyRate > stats[j].AccuracyRate
	})
	return stats, nil
}

// ByUser returns one row per user, best accuracy first
func (s *StatsService) ByUser(ctx context.Context) ([]models.UserStats, error) {
	stats, err := s.statsRepo.UserTotals(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	for i := range stats {
		stats[i].ComputeAccuracy()
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].AccuracyRate > stats[j].AccuracyRate
	})
	return stats, nil
}

// ByHour groups every session by the UTC hour it started in. Hours without
// sessions are absent.
func (s *StatsService) ByHour(ctx context.Context) ([]models.HourStats, error) {
	outcomes, err := s.statsRepo.SessionOutcomes(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}

	type bucket struct {
		stats         models.HourStats
		confidenceSum float64
		results       int
	}
	var buckets [24]*bucket

	for _, o := range outcomes {
		hour := o.SessionDate.UTC().Hour()
		b := buckets[hour]
		if b == nil {
			b = &bucket{stats: models.HourStats{Hour: hour}}
			buckets[hour] = b
		}
		b.stats.TotalAttempts++
		if !o.HasResult {
			continue
		}
		b.results++
		b.confidenceSum += o.Confidence
		if o.IsCorrect {
			b.stats.CorrectCount++
		}
	}

	stats := []models.HourStats{}
	for _, b := range buckets {
		if b == nil {
			continue
		}
		if b.results > 0 {
			b.stats.AvgConfidence = b.confidenceSum / float64(b.results)
		}
		b.stats.ComputeAccuracy()
		stats = append(stats, b.stats)
	}
	return stats, nil
}
