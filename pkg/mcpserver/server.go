// Package mcpserver exposes the ABS bridge to Model Context Protocol hosts.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/statkit/absbridge/pkg/dataflow"
	"github.com/statkit/absbridge/pkg/logging"
	"github.com/statkit/absbridge/pkg/sdmx"
	"github.com/statkit/absbridge/pkg/services"
)

// DataflowsResourceURI addresses the cached dataflow listing
const DataflowsResourceURI = "abs://dataflows"

// bridge holds the handlers behind the MCP surface
type bridge struct {
	flows  *services.DataflowService
	logger logging.Logger
}

// New creates an MCP server exposing the ABS data tools, the dataflow
// listing resource, and the analysis prompt.
func New(flows *services.DataflowService, logger logging.Logger, version string) *server.MCPServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &bridge{flows: flows, logger: logger}

	s := server.NewMCPServer(
		"absbridge",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("list_dataflows",
		mcp.WithDescription("List the datasets (dataflows) available from the ABS Data API. Results are cached; pass forceRefresh to bypass the cache."),
		mcp.WithBoolean("forceRefresh",
			mcp.Description("Refetch the dataflow listing from the ABS API even if a fresh cached copy exists"),
		),
	), b.listDataflows)

	s.AddTool(mcp.NewTool("get_data",
		mcp.WithDescription("Retrieve observation data for an ABS dataflow. Use list_dataflows to discover dataflow identifiers."),
		mcp.WithString("dataflowId",
			mcp.Required(),
			mcp.Description("Dataflow identifier, either a flow id like 'CPI' or the full 'agency,id,version' form"),
		),
		mcp.WithString("dataKey",
			mcp.Description("Dimension key filter such as '1.AUS', or 'all' (the default)"),
		),
		mcp.WithString("startPeriod",
			mcp.Description("Inclusive start period in ISO period form, e.g. 2021 or 2021-Q3"),
		),
		mcp.WithString("endPeriod",
			mcp.Description("Inclusive end period in ISO period form"),
		),
		mcp.WithString("format",
			mcp.Description("Response format"),
			mcp.Enum("csvfilewithlabels", "csvfile", "jsondata", "genericdata", "structurespecificdata"),
		),
		mcp.WithString("detail",
			mcp.Description("Payload richness"),
			mcp.Enum("full", "dataonly", "serieskeysonly", "nodata"),
		),
		mcp.WithString("dimensionAtObservation",
			mcp.Description("Dimension at the observation level: TIME_PERIOD, AllDimensions, or a dimension name"),
		),
	), b.getData)

	s.AddTool(mcp.NewTool("list_structures",
		mcp.WithDescription("Query SDMX structural metadata (codelists, data structures, concept schemes, ...) from the ABS Data API."),
		mcp.WithString("structureType",
			mcp.Required(),
			mcp.Description("Structure type, e.g. codelist, datastructure, conceptscheme, categoryscheme, dataflow"),
		),
		mcp.WithString("agencyId",
			mcp.Description("Maintaining agency, defaults to ABS"),
		),
		mcp.WithString("detail",
			mcp.Description("Structure detail level"),
			mcp.Enum("full", "allstubs", "referencestubs", "referencepartial", "allcompletestubs", "referencecompletestubs"),
		),
		mcp.WithString("references",
			mcp.Description("Related artefacts to include: none, parents, parentsandsiblings, children, descendants, all, or a structure type"),
		),
	), b.listStructures)

	s.AddResource(mcp.NewResource(
		DataflowsResourceURI,
		"ABS dataflows",
		mcp.WithResourceDescription("The cached listing of datasets available from the ABS Data API"),
		mcp.WithMIMEType("application/json"),
	), b.readDataflows)

	s.AddPrompt(mcp.NewPrompt("analyse_dataflow",
		mcp.WithPromptDescription("Guide an analysis of a single ABS dataflow"),
		mcp.WithArgument("flowId",
			mcp.ArgumentDescription("The dataflow id to analyse"),
			mcp.RequiredArgument(),
		),
	), b.analyseDataflow)

	return s
}

// listDataflows handles the list_dataflows tool
func (b *bridge) listDataflows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	forceRefresh := req.GetBool("forceRefresh", false)

	flows, err := b.flows.GetDataFlows(ctx, forceRefresh)
	if err != nil {
		b.logger.Error("list_dataflows failed", logging.F("error", err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"count":     len(flows),
		"dataflows": flows,
	})
}

// getData handles the get_data tool
func (b *bridge) getData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataflowID, err := req.RequireString("dataflowId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	options := &sdmx.QueryOptions{
		StartPeriod:            req.GetString("startPeriod", ""),
		EndPeriod:              req.GetString("endPeriod", ""),
		Format:                 sdmx.Format(req.GetString("format", "")),
		Detail:                 sdmx.Detail(req.GetString("detail", "")),
		DimensionAtObservation: req.GetString("dimensionAtObservation", ""),
	}

	result, err := b.flows.GetFlowData(ctx, dataflowID, req.GetString("dataKey", "all"), options)
	if err != nil {
		b.logger.Error("get_data failed",
			logging.F("dataflow_id", dataflowID),
			logging.F("error", err),
		)
		return mcp.NewToolResultError(err.Error()), nil
	}

	// CSV formats come back as raw text; everything else as a parsed tree
	if raw, ok := result.(string); ok {
		return mcp.NewToolResultText(raw), nil
	}
	return jsonResult(result)
}

// listStructures handles the list_structures tool
func (b *bridge) listStructures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	structureType, err := req.RequireString("structureType")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tree, err := b.flows.GetStructures(
		ctx,
		structureType,
		req.GetString("agencyId", ""),
		sdmx.StructureDetail(req.GetString("detail", "")),
		sdmx.References(req.GetString("references", "")),
	)
	if err != nil {
		b.logger.Error("list_structures failed",
			logging.F("structure_type", structureType),
			logging.F("error", err),
		)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(tree)
}

// readDataflows handles reads of the abs://dataflows resource
func (b *bridge) readDataflows(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	flows, err := b.flows.GetDataFlows(ctx, false)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(flows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataflows: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DataflowsResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// analyseDataflow handles the analyse_dataflow prompt
func (b *bridge) analyseDataflow(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	flowID := req.Params.Arguments["flowId"]
	if flowID == "" {
		return nil, fmt.Errorf("flowId argument is required")
	}

	flows, err := b.flows.GetDataFlows(ctx, false)
	if err != nil {
		return nil, err
	}

	var text string
	for _, flow := range flows {
		if flow.ID == flowID {
			text = fmt.Sprintf(
				"Analyse the ABS dataset %q (%s). Its full identifier for data queries is %s. "+
					"Use the get_data tool with dataflowId=%q to retrieve observations; "+
					"narrow the request with startPeriod/endPeriod and a dataKey before asking for full detail.",
				flow.Name, flow.ID, dataflow.FormatDataflowIdentifier(flow), flow.ID,
			)
			break
		}
	}
	if text == "" {
		text = fmt.Sprintf(
			"The dataflow %q is not in the cached listing. Call the list_dataflows tool "+
				"(optionally with forceRefresh) to discover available datasets, then retry.",
			flowID,
		)
	}

	return mcp.NewGetPromptResult(
		"ABS dataflow analysis",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}

// jsonResult marshals a payload into a text tool result
func jsonResult(payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
