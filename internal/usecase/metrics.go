package usecase

import (
	"context"

	"github.com/argotrack/scan-api/internal/classifier"
)

// MetricsSummary represents aggregated scan insights.
type MetricsSummary struct {
	TotalScans   int64            `json:"total_scans"`
	HealthyScans int64            `json:"healthy_scans"`
	HealthyRate  float64          `json:"healthy_rate"`
	ByStatus     map[string]int64 `json:"by_status"`
}

// GetMetricsSummary aggregates scan metrics from persisted records.
func (uc *ScanUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	counts, err := uc.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{ByStatus: make(map[string]int64, len(counts))}
	for _, c := range counts {
		summary.ByStatus[c.Status] = c.Count
		summary.TotalScans += c.Count
		if c.Status == classifier.LabelHealthy.String() {
			summary.HealthyScans = c.Count
		}
	}

	if summary.TotalScans > 0 {
		summary.HealthyRate = float64(summary.HealthyScans) / float64(summary.TotalScans)
	}

	return summary, nil
}
