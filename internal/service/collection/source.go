package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/davidleathers/aire-backend/internal/domain/errors"
	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
)

const (
	aiIncidentSourceName = "ai_incidents"
	maxResponseBytes     = 32 << 20
	harmScale            = 10.0
)

// AIIncidentSource reads the public AI incident feed. Each request is bounded
// by the configured fetch timeout and is never retried.
type AIIncidentSource struct {
	url       string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewAIIncidentSource builds the source from configuration. A nil client gets
// a default one with the fetch timeout applied.
func NewAIIncidentSource(cfg config.SourcesConfig, client *http.Client) *AIIncidentSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	return &AIIncidentSource{
		url:       cfg.AIIncidentsURL,
		userAgent: cfg.UserAgent,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

func (s *AIIncidentSource) Name() string { return aiIncidentSourceName }

// Fetch issues one GET and maps the "incidents" array into incident records.
func (s *AIIncidentSource) Fetch(ctx context.Context) ([]risk.Record, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), "rate limiter").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), "building request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var body struct {
		Incidents []map[string]interface{} `json:"incidents"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), "decoding response").WithCause(err)
	}

	records := make([]risk.Record, 0, len(body.Incidents))
	for _, item := range body.Incidents {
		records = append(records, mapIncident(item))
	}
	return records, nil
}

func mapIncident(item map[string]interface{}) risk.Record {
	src := risk.Record(item)
	return risk.Record{
		risk.FieldTitle:       src.String(risk.FieldTitle),
		risk.FieldDescription: src.String(risk.FieldDescription),
		risk.FieldDate:        src.String(risk.FieldDate),
		risk.FieldCategory:    string(risk.DomainAI),
		risk.FieldSeverity:    harmSeverity(item["harm"]),
	}
}

// harmSeverity scales the number of listed harms into [0, 1].
func harmSeverity(harm interface{}) float64 {
	items, _ := harm.([]interface{})
	return math.Min(float64(len(items))/harmScale, 1.0)
}
