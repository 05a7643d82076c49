package collection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "github.com/davidleathers/aire-backend/internal/domain/errors"
	"github.com/davidleathers/aire-backend/internal/domain/risk"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
)

var aiIncidents = Key{Domain: risk.DomainAI, Kind: risk.KindIncident}

func sourcesConfig(url string) config.SourcesConfig {
	cfg := config.Defaults().Sources
	cfg.AIIncidentsURL = url
	cfg.FetchTimeout = 2 * time.Second
	cfg.RequestsPerSecond = 100
	return cfg
}

type fallbackEvent struct {
	key Key
	err error
}

func newTestRegistry(t *testing.T, url string, opts ...Option) (*Registry, *[]fallbackEvent) {
	t.Helper()
	var events []fallbackEvent
	opts = append(opts, WithFallbackHook(func(k Key, err error) {
		events = append(events, fallbackEvent{k, err})
	}))
	return NewRegistry(sourcesConfig(url), zaptest.NewLogger(t), opts...), &events
}

func TestAIIncidents_LiveSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "aire-backend", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"incidents":[
			{"title":"Deepfake CEO call","description":"Voice clone authorised a transfer.","date":"2024-02-04","harm":["financial","reputational"]},
			{"title":"Runaway agent","harm":["a","b","c","d","e","f","g","h","i","j","k","l"]},
			{"description":"no harm field"}
		]}`))
	}))
	defer server.Close()

	reg, events := newTestRegistry(t, server.URL)
	records, err := reg.Collect(context.Background(), aiIncidents)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, risk.Record{
		"title":       "Deepfake CEO call",
		"description": "Voice clone authorised a transfer.",
		"date":        "2024-02-04",
		"category":    "AI",
		"severity":    0.2,
	}, records[0])
	assert.Equal(t, 1.0, records[1]["severity"], "severity is capped at 1")
	assert.Equal(t, "", records[1]["description"])
	assert.Equal(t, 0.0, records[2]["severity"])
	assert.Equal(t, "", records[2]["title"])
	assert.Empty(t, *events)
}

func TestAIIncidents_FallbackPaths(t *testing.T) {
	tests := []struct {
		name    string
		url     func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "unreachable endpoint",
			url: func(t *testing.T) string {
				server := httptest.NewServer(http.NotFoundHandler())
				url := server.URL
				server.Close()
				return url
			},
			wantErr: true,
		},
		{
			name: "server error",
			url: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					http.Error(w, "upstream down", http.StatusServiceUnavailable)
				}))
				t.Cleanup(server.Close)
				return server.URL
			},
			wantErr: true,
		},
		{
			name: "malformed json",
			url: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte(`{"incidents": [`))
				}))
				t.Cleanup(server.Close)
				return server.URL
			},
			wantErr: true,
		},
		{
			name: "empty incident list",
			url: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte(`{"incidents": []}`))
				}))
				t.Cleanup(server.Close)
				return server.URL
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, events := newTestRegistry(t, tt.url(t))

			records, err := reg.Collect(context.Background(), aiIncidents)
			require.NoError(t, err)
			assert.Equal(t, Samples(aiIncidents), records)

			require.Len(t, *events, 1)
			assert.Equal(t, aiIncidents, (*events)[0].key)
			if tt.wantErr {
				assert.True(t, apperrors.HasCode((*events)[0].err, apperrors.CodeSourceUnavailable))
			} else {
				assert.NoError(t, (*events)[0].err)
			}
		})
	}
}

func TestAIIncidents_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := sourcesConfig(server.URL)
	cfg.FetchTimeout = 50 * time.Millisecond

	var fellBack bool
	reg := NewRegistry(cfg, zaptest.NewLogger(t), WithFallbackHook(func(Key, error) { fellBack = true }))

	start := time.Now()
	records, err := reg.Collect(context.Background(), aiIncidents)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, fellBack)
	assert.Len(t, records, 3)
}

func TestRegistry_SampleCollectors(t *testing.T) {
	reg, events := newTestRegistry(t, "")

	expected := map[Key]int{
		{risk.DomainAI, risk.KindIncident}:              3,
		{risk.DomainAI, risk.KindBenchmark}:             3,
		{risk.DomainAI, risk.KindEvaluation}:            2,
		{risk.DomainBio, risk.KindIncident}:             2,
		{risk.DomainBio, risk.KindBenchmark}:            2,
		{risk.DomainBio, risk.KindEvaluation}:           2,
		{risk.DomainLossOfControl, risk.KindIncident}:   2,
		{risk.DomainLossOfControl, risk.KindBenchmark}:  2,
		{risk.DomainLossOfControl, risk.KindEvaluation}: 2,
	}

	keys := reg.Keys()
	require.Len(t, keys, 9)
	assert.Equal(t, Key{risk.DomainAI, risk.KindIncident}, keys[0])
	assert.Equal(t, Key{risk.DomainLossOfControl, risk.KindEvaluation}, keys[8])

	for _, key := range keys {
		c, ok := reg.Get(key.Domain, key.Kind)
		require.True(t, ok)
		assert.Equal(t, key.Domain, c.Domain())
		assert.Equal(t, key.Kind, c.Kind())

		records := c.Collect(context.Background())
		assert.Len(t, records, expected[key], key.String())
		for _, r := range records {
			assert.Equal(t, string(key.Domain), r[risk.FieldCategory])
			for _, f := range risk.RequiredFields(key.Kind) {
				assert.True(t, r.Has(f), "%s missing %s", key, f)
			}
		}
	}
	assert.Len(t, *events, 9)
}

func TestRegistry_SamplesAreCopies(t *testing.T) {
	reg, _ := newTestRegistry(t, "")
	key := Key{risk.DomainBio, risk.KindIncident}

	first, err := reg.Collect(context.Background(), key)
	require.NoError(t, err)
	first[0][risk.FieldSeverity] = 42.0
	first[0]["extra"] = true

	second, err := reg.Collect(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 0.9, second[0][risk.FieldSeverity])
	assert.False(t, second[0].Has("extra"))
}

type stubSource struct {
	records []risk.Record
	err     error
}

func (s stubSource) Name() string { return "stub" }
func (s stubSource) Fetch(context.Context) ([]risk.Record, error) {
	return s.records, s.err
}

func TestRegistry_SourceOverride(t *testing.T) {
	key := Key{risk.DomainBio, risk.KindBenchmark}
	live := []risk.Record{{"name": "Live", "metric": "m", "value": 1.0, "category": "Bio"}}

	reg, events := newTestRegistry(t, "", WithSource(key, stubSource{records: live}))
	got, err := reg.Collect(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, live, got)

	reg, events = newTestRegistry(t, "", WithSource(key, stubSource{err: errors.New("boom")}))
	got, err = reg.Collect(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, Samples(key), got)
	require.Len(t, *events, 1)
	assert.EqualError(t, (*events)[0].err, "boom")
}

func TestRegistry_UnknownKey(t *testing.T) {
	reg, _ := newTestRegistry(t, "")
	_, err := reg.Collect(context.Background(), Key{Domain: "Space", Kind: risk.KindIncident})
	assert.Error(t, err)

	_, ok := reg.Get(risk.DomainAI, risk.KindModelVersion)
	assert.False(t, ok)
}
