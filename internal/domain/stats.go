package domain

import (
	"context"
	"time"
)

// EndpointHit is a single recorded request against a public endpoint.
type EndpointHit struct {
	App       string    `json:"app"`
	URI       string    `json:"uri"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

// ViewStats is the aggregated hit count for one URI.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// StatsClient talks to the analytics collaborator. Both calls are best-effort
// from the caller's point of view: services swallow errors and degrade to
// zero views.
type StatsClient interface {
	RecordHit(ctx context.Context, hit EndpointHit) error
	QueryStats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]ViewStats, error)
}
