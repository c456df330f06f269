package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/bs-smart-parking/internal/fallback"
	"github.com/i474232898/bs-smart-parking/internal/geo"
	"github.com/i474232898/bs-smart-parking/internal/parking"
	"github.com/i474232898/bs-smart-parking/internal/upstream"
)

const (
	originPrimary = "primary"
	originSmart   = "smart"

	maxFeedBytes = 5 << 20
)

var errFeedNotConfigured = errors.New("feed url is not configured")

// LiveConfig configures the live garage source.
type LiveConfig struct {
	PrimaryURL string
	SmartURL   string
	City       string
	Center     geo.Coordinate
	Timeout    time.Duration
}

// LiveSource reads current garage occupancy, degrading from the primary feed
// to the smart aggregation endpoint and finally to a hard-coded garage.
type LiveSource struct {
	cfg     LiveConfig
	primary *upstream.Client
	smart   *upstream.Client
	logger  *zap.Logger
}

// NewLiveSource creates a LiveSource. Each feed gets its own client so one
// failing upstream does not trip the other's breaker.
func NewLiveSource(cfg LiveConfig, primary, smart *upstream.Client, logger *zap.Logger) *LiveSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveSource{
		cfg:     cfg,
		primary: primary,
		smart:   smart,
		logger:  logger,
	}
}

func (s *LiveSource) Name() parking.DataSource {
	return parking.SourceLive
}

// Fetch returns the first stage that yields garages. It never returns an empty slice.
func (s *LiveSource) Fetch(ctx context.Context) parking.Slice {
	spots, origin, err := fallback.FirstSuccess(ctx,
		s.stage(originPrimary, s.primary, s.cfg.PrimaryURL, decodeFeed),
		s.stage(originSmart, s.smart, s.cfg.SmartURL, decodeSmart),
		fallback.Attempt[[]parking.Spot]{Name: parking.OriginHardcoded, Run: func(context.Context) ([]parking.Spot, error) {
			return []parking.Spot{s.hardcodedGarage()}, nil
		}},
	)
	if err != nil {
		spots, origin = []parking.Spot{s.hardcodedGarage()}, parking.OriginHardcoded
	}

	return parking.Slice{
		Source:    parking.SourceLive,
		Spots:     spots,
		Origin:    origin,
		Degraded:  origin != originPrimary,
		FetchedAt: time.Now().UTC(),
	}
}

func (s *LiveSource) stage(
	name string,
	client *upstream.Client,
	url string,
	decode func([]byte) ([]feedRecord, error),
) fallback.Attempt[[]parking.Spot] {
	return fallback.Attempt[[]parking.Spot]{
		Name: name,
		Run: func(ctx context.Context) ([]parking.Spot, error) {
			spots, err := s.fetchStage(ctx, client, url, decode)
			if err != nil {
				s.logger.Warn("live garage stage failed",
					zap.String("stage", name),
					zap.Error(err))
			}
			return spots, err
		},
	}
}

func (s *LiveSource) fetchStage(
	ctx context.Context,
	client *upstream.Client,
	url string,
	decode func([]byte) ([]feedRecord, error),
) ([]parking.Spot, error) {
	if url == "" || client == nil {
		return nil, errFeedNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json, application/geo+json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	records, err := decode(body)
	if err != nil {
		return nil, err
	}
	return toSpots(records, s.cfg.City)
}

func (s *LiveSource) hardcodedGarage() parking.Spot {
	spot := parking.Spot{
		ID:              "live-fallback-innenstadt",
		Name:            "Parkhaus Innenstadt",
		Address:         s.cfg.City,
		Type:            parking.TypeGarage,
		Coordinates:     s.cfg.Center,
		AvailableSpaces: 120,
		TotalSpaces:     intPtr(400),
		HourlyPrice:     DefaultGaragePrice,
		IsOpen:          true,
		DataSource:      parking.SourceLive,
		Features:        []string{"covered"},
		Pricing:         parking.Pricing{Hourly: floatPtr(DefaultGaragePrice)},
	}
	spot.Normalize()
	return spot
}
