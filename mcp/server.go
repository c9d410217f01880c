// Package mcp provides the MCP (Model Context Protocol) server for superpeer.
//
// It exposes topology generation and both routing strategies as MCP tools
// over a stdio JSON-RPC transport.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/superpeer-go/internal/routing"
	"github.com/Benny93/superpeer-go/internal/topology"
)

// Engine is the subset of overlay.Engine the server needs.
type Engine interface {
	GenerateTopology(regularCount, superCount int) (*topology.Stats, error)
	ShortestPath(startID, endID string) (routing.Path, error)
	PathThroughBackbone(startID, endID string) (routing.Path, error)
	Partition() (topology.Partition, error)
	Stats() *topology.Stats
}

// Server represents the MCP server.
type Server struct {
	engine Engine
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine: engine,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "superpeer-go",
		Version: "0.1.0",
	}, nil)

	s.registerTools()

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	pathSchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"start": {Type: "string", Description: "Start regular node id (n7) or bare index (7)"},
			"end":   {Type: "string", Description: "End regular node id (n7) or bare index (7)"},
		},
		Required: []string{"start", "end"},
	}

	return []Tool{
		{
			Name:        "overlay_generate",
			Description: "Clear and rebuild the overlay topology. Counts default to 100 regular and 13 super nodes.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"regular_count": {Type: "integer", Description: "Number of regular nodes"},
					"super_count":   {Type: "integer", Description: "Number of super nodes"},
				},
			},
		},
		{
			Name:        "overlay_shortest_path",
			Description: "Fewest-hop path between two nodes over any edge kind. Empty when unreachable.",
			InputSchema: pathSchema,
		},
		{
			Name:        "overlay_backbone_path",
			Description: "Relay path between two regular nodes that always climbs to the super-node backbone.",
			InputSchema: pathSchema,
		},
		{
			Name:        "overlay_partitions",
			Description: "List the regular node range owned by each super node.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
	}
}

// ListResources returns all available resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "overlay://overview",
			Name:        "Topology Overview",
			Description: "Node and edge counts of the current topology",
			MimeType:    "text/plain",
		},
		{
			URI:         "overlay://schema",
			Name:        "Identifier Schema",
			Description: "Node and edge identifier formats",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "overlay_generate":
		regular, _ := args["regular_count"].(float64)
		super, _ := args["super_count"].(float64)
		return handleGenerate(s.engine, int(regular), int(super))
	case "overlay_shortest_path":
		start, _ := args["start"].(string)
		end, _ := args["end"].(string)
		return handleShortestPath(s.engine, start, end)
	case "overlay_backbone_path":
		start, _ := args["start"].(string)
		end, _ := args["end"].(string)
		return handleBackbonePath(s.engine, start, end)
	case "overlay_partitions":
		return handlePartitions(s.engine)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "overlay://overview":
		return getOverview(s.engine), nil
	case "overlay://schema":
		return getSchema(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// MCP requires compact JSON, one message per line.

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		// Notifications carry no id and get no response.
		if _, ok := req["id"]; !ok {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

// RunSDK serves the same tools through the SDK's stdio transport.
func (s *Server) RunSDK(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "superpeer-go",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

// Tool Handlers

func handleGenerate(engine Engine, regular, super int) (string, error) {
	stats, err := engine.GenerateTopology(regular, super)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generated topology %s\n\n", stats.GenerationID)
	fmt.Fprintf(&sb, "Super nodes:    %d\n", stats.SuperCount)
	fmt.Fprintf(&sb, "Regular nodes:  %d\n", stats.RegularCount)
	fmt.Fprintf(&sb, "Backbone edges: %d\n", stats.BackboneEdges)
	fmt.Fprintf(&sb, "Spoke edges:    %d\n", stats.SpokeEdges)
	fmt.Fprintf(&sb, "Peer edges:     %d (target %d per node, %d short)\n", stats.PeerEdges, stats.PeerTarget, stats.PeerShortfall)
	return sb.String(), nil
}

func handleShortestPath(engine Engine, start, end string) (string, error) {
	if start == "" || end == "" {
		return "", fmt.Errorf("start and end are required")
	}

	path, err := engine.ShortestPath(start, end)
	if err != nil {
		return "", err
	}
	if len(path) == 0 {
		return fmt.Sprintf("No path between %s and %s.", start, end), nil
	}
	return formatPath("Shortest path", path), nil
}

func handleBackbonePath(engine Engine, start, end string) (string, error) {
	if start == "" || end == "" {
		return "", fmt.Errorf("start and end are required")
	}

	path, err := engine.PathThroughBackbone(start, end)
	if err != nil {
		return "", err
	}
	return formatPath("Backbone path", path), nil
}

func handlePartitions(engine Engine) (string, error) {
	partition, err := engine.Partition()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d regular nodes over %d super nodes (%d each, remainder %d to the last)\n\n",
		partition.RegularCount, partition.SuperCount, partition.PerSuper, partition.Remainder())
	for k, r := range partition.Ranges() {
		fmt.Fprintf(&sb, "- s%d: n%d..n%d (%d nodes)\n", k, r.Start, r.End-1, r.Len())
	}
	return sb.String(), nil
}

func formatPath(title string, path routing.Path) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d hops):\n", title, path.Hops())
	sb.WriteString(strings.Join(path.IDs(), " -> "))
	sb.WriteString("\n")
	if missing := path.Missing(); len(missing) > 0 {
		fmt.Fprintf(&sb, "\nINCOMPLETE: missing %s. The topology was likely generated with different counts.\n",
			strings.Join(missing, ", "))
	}
	return sb.String()
}

func getOverview(engine Engine) string {
	stats := engine.Stats()
	if stats == nil {
		return "No topology generated yet. Call overlay_generate first."
	}
	return fmt.Sprintf(`Superpeer Overlay Overview
==========================

Generation: %s
Nodes: %d (%d super, %d regular)
Edges: %d (%d backbone, %d spoke, %d peer)
`, stats.GenerationID, stats.Nodes, stats.SuperCount, stats.RegularCount,
		stats.Edges, stats.BackboneEdges, stats.SpokeEdges, stats.PeerEdges)
}

func getSchema() string {
	return `Superpeer Identifier Schema
===========================

Node IDs:
- n{i}: regular node with index i
- s{i}: super node with index i

Edge IDs: edge{source}{target}
- edges{i}s{j}: backbone edge from super i to super j
- edges{i}n{k}: spoke edge from super i to regular k
- edgen{k}n{m}: peer edge from regular k to regular m

Edges are stored directed and traversed in both directions.
`
}

// Helper functions

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

// registerTools registers every tool with the SDK server, dispatching to
// CallTool so both transports share one implementation.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		name := tool.Name
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := map[string]any{}
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return nil, fmt.Errorf("decoding arguments: %w", err)
				}
			}

			text, err := s.CallTool(ctx, name, args)
			if err != nil {
				return &mcp.CallToolResult{
					IsError: true,
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
			}, nil
		})
	}
}
