package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/hazyhaar/conso-energie/pkg/conso"
	"github.com/hazyhaar/conso-energie/pkg/kit"
	"github.com/hazyhaar/conso-energie/pkg/store"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// Querier is the read side of the result store.
type Querier interface {
	LatestRun(ctx context.Context) (*store.Run, error)
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	Consumption(ctx context.Context, runID string, ds conso.Dataset, level zone.Kind, f store.Filter) ([]conso.MetricRow, error)
	Sectors(ctx context.Context, runID string, level zone.Kind, f store.Filter) ([]conso.SectorRow, error)
}

// errInvalidQuery marks request parameters that do not parse.
var errInvalidQuery = errors.New("invalid query")

// Shared request/response types used by both HTTP and MCP transports.

type consumptionReq struct {
	RunID   string
	Dataset conso.Dataset
	Level   zone.Kind
	Filter  store.Filter
}

type sectorsReq struct {
	RunID  string
	Level  zone.Kind
	Filter store.Filter
}

type consumptionResponse struct {
	RunID   string            `json:"run_id"`
	Dataset string            `json:"dataset"`
	Level   string            `json:"level"`
	Rows    []conso.MetricRow `json:"rows"`
}

type sectorsResponse struct {
	RunID string            `json:"run_id"`
	Level string            `json:"level"`
	Rows  []conso.SectorRow `json:"rows"`
}

// queryParams are the raw parameters common to both transports.
type queryParams struct {
	Run     string
	Dataset string
	Level   string
	Year    string
	Zone    string
}

func (p queryParams) level() (zone.Kind, error) {
	lvl, err := zone.ParseKind(p.Level)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidQuery, err)
	}
	return lvl, nil
}

func (p queryParams) filter(level zone.Kind) (store.Filter, error) {
	var f store.Filter
	if y := strings.TrimSpace(p.Year); y != "" {
		year, err := cast.ToIntE(y)
		if err != nil || year <= 0 {
			return f, fmt.Errorf("%w: year %q", errInvalidQuery, p.Year)
		}
		f.Year = year
	}
	code, err := zone.Parse(level, p.Zone)
	if err != nil {
		return f, fmt.Errorf("%w: %v", errInvalidQuery, err)
	}
	f.Zone = code
	return f, nil
}

func (p queryParams) consumptionReq() (*consumptionReq, error) {
	ds, err := conso.ParseDataset(p.Dataset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidQuery, err)
	}
	lvl, err := p.level()
	if err != nil {
		return nil, err
	}
	f, err := p.filter(lvl)
	if err != nil {
		return nil, err
	}
	return &consumptionReq{RunID: p.Run, Dataset: ds, Level: lvl, Filter: f}, nil
}

func (p queryParams) sectorsReq() (*sectorsReq, error) {
	lvl, err := p.level()
	if err != nil {
		return nil, err
	}
	f, err := p.filter(lvl)
	if err != nil {
		return nil, err
	}
	return &sectorsReq{RunID: p.Run, Level: lvl, Filter: f}, nil
}

// resolveRun returns runID when set, else the latest run's ID.
func resolveRun(ctx context.Context, q Querier, runID string) (string, error) {
	if runID != "" {
		r, err := q.GetRun(ctx, runID)
		if err != nil {
			return "", err
		}
		return r.ID, nil
	}
	r, err := q.LatestRun(ctx)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func latestRunEndpoint(q Querier) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return q.LatestRun(ctx)
	}
}

func consumptionEndpoint(q Querier) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*consumptionReq)
		runID, err := resolveRun(ctx, q, req.RunID)
		if err != nil {
			return nil, err
		}
		rows, err := q.Consumption(ctx, runID, req.Dataset, req.Level, req.Filter)
		if err != nil {
			return nil, err
		}
		return consumptionResponse{
			RunID:   runID,
			Dataset: req.Dataset.String(),
			Level:   req.Level.String(),
			Rows:    rows,
		}, nil
	}
}

func sectorsEndpoint(q Querier) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*sectorsReq)
		runID, err := resolveRun(ctx, q, req.RunID)
		if err != nil {
			return nil, err
		}
		rows, err := q.Sectors(ctx, runID, req.Level, req.Filter)
		if err != nil {
			return nil, err
		}
		return sectorsResponse{RunID: runID, Level: req.Level.String(), Rows: rows}, nil
	}
}

// endpoints holds the logged endpoints shared by both transports.
type endpoints struct {
	latestRun   kit.Endpoint
	consumption kit.Endpoint
	sectors     kit.Endpoint
}

func newEndpoints(q Querier, logger *slog.Logger) endpoints {
	return endpoints{
		latestRun:   kit.Logging(logger, "latest_run")(latestRunEndpoint(q)),
		consumption: kit.Logging(logger, "query_consumption")(consumptionEndpoint(q)),
		sectors:     kit.Logging(logger, "query_sectors")(sectorsEndpoint(q)),
	}
}
