package api

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/hazyhaar/conso-energie/pkg/kit"
)

// RegisterMCPTools registers the query tools on the server.
func RegisterMCPTools(srv *server.MCPServer, q Querier, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	eps := newEndpoints(q, logger)

	kit.RegisterMCPTool(srv, latestRunTool(), eps.latestRun,
		func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: nil}, nil
		})
	kit.RegisterMCPTool(srv, queryConsumptionTool(), eps.consumption, decodeConsumption)
	kit.RegisterMCPTool(srv, querySectorsTool(), eps.sectors, decodeSectors)
}

func latestRunTool() mcp.Tool {
	return mcp.NewTool("latest_run",
		mcp.WithDescription("Describe the most recent transformation run: ID, creation time, years processed, failed zones."),
	)
}

func queryConsumptionTool() mcp.Tool {
	return mcp.NewTool("query_consumption",
		mcp.WithDescription("Annual electricity consumption per resident (MWh) by department or region, for residential or business customers."),
		mcp.WithString("dataset", mcp.Required(), mcp.Description("Customer dataset: res (residentiel) or ent (entreprise)")),
		mcp.WithString("level", mcp.Required(), mcp.Description("Zone level: dep or reg")),
		mcp.WithString("year", mcp.Description("Restrict to one year (e.g. 2021)")),
		mcp.WithString("zone", mcp.Description("Restrict to one department or region code (e.g. 2A, 84)")),
		mcp.WithString("run", mcp.Description("Run ID; defaults to the latest run")),
	)
}

func querySectorsTool() mcp.Tool {
	return mcp.NewTool("query_sectors",
		mcp.WithDescription("Business electricity consumption (MWh) split by sector (TERTIAIRE, INDUSTRIE, AGRICULTURE, INCONNU)."),
		mcp.WithString("level", mcp.Required(), mcp.Description("Zone level: dep or reg")),
		mcp.WithString("year", mcp.Description("Restrict to one year (e.g. 2021)")),
		mcp.WithString("zone", mcp.Description("Restrict to one department or region code")),
		mcp.WithString("run", mcp.Description("Run ID; defaults to the latest run")),
	)
}

// mcpParams reads the tool arguments. Clients may send year or zone as JSON
// numbers, so scalars of any kind are accepted.
func mcpParams(req mcp.CallToolRequest) (queryParams, error) {
	args := req.GetArguments()
	var p queryParams
	for key, dst := range map[string]*string{
		"run":     &p.Run,
		"dataset": &p.Dataset,
		"level":   &p.Level,
		"year":    &p.Year,
		"zone":    &p.Zone,
	} {
		v, err := cast.ToStringE(args[key])
		if err != nil {
			return p, fmt.Errorf("%w: %s: %v", errInvalidQuery, key, err)
		}
		*dst = v
	}
	return p, nil
}

func decodeConsumption(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	p, err := mcpParams(req)
	if err != nil {
		return nil, err
	}
	r, err := p.consumptionReq()
	if err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: r}, nil
}

func decodeSectors(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	p, err := mcpParams(req)
	if err != nil {
		return nil, err
	}
	r, err := p.sectorsReq()
	if err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: r}, nil
}
