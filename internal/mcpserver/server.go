// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes habit tracking tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yodaliu/jera/internal/marker"
	"github.com/yodaliu/jera/internal/trackerservice"
)

// Server wraps the MCP server with habit tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *trackerservice.Service
	daily trackerservice.Periodic
}

// New creates a new MCP server with all habit tools registered.
func New(svc *trackerservice.Service, periodic trackerservice.Periodic) *Server {
	s := &Server{svc: svc, daily: periodic}

	s.mcp = server.NewMCPServer(
		"Jera",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_habits",
		mcp.WithDescription("List every habit in the habit directory with its metadata."),
	), s.listHabits)

	s.mcp.AddTool(mcp.NewTool("habit_history",
		mcp.WithDescription("Return a habit's recorded daily values and streak statistics."),
		mcp.WithString("habit", mcp.Required(), mcp.Description("Habit name (note base filename)")),
		mcp.WithString("from", mcp.Description("Inclusive start date, YYYY-MM-DD (optional)")),
		mcp.WithString("to", mcp.Description("Inclusive end date, YYYY-MM-DD (optional)")),
	), s.habitHistory)

	s.mcp.AddTool(mcp.NewTool("log_habit",
		mcp.WithDescription("Record a value for a habit on a given day by rewriting its "+
			"marker in the daily note. The marker must already exist in that note; read "+
			"the contract via get_marker_contract for the format."),
		mcp.WithString("habit", mcp.Required(), mcp.Description("Habit name")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("New primary value (checked cells, rating, amount, or progress)")),
		mcp.WithString("date", mcp.Description("Day to log, YYYY-MM-DD (defaults to today)")),
	), s.logHabit)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. daily/2025-07-01.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("get_marker_contract",
		mcp.WithDescription("Returns the inline habit marker format contract. "+
			"Call this before writing marker text by hand."),
	), s.getMarkerContract)

	// Resource: marker format contract.
	s.mcp.AddResource(
		mcp.NewResource("jera://marker-format", "Marker Format Contract",
			mcp.WithResourceDescription("Inline habit marker wire format that all markers follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkerFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listHabits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.ListHabits(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) habitHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	habit, err := req.RequireString("habit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from := ""
	if v, vErr := req.RequireString("from"); vErr == nil {
		from = v
	}
	to := ""
	if v, vErr := req.RequireString("to"); vErr == nil {
		to = v
	}

	res, err := s.svc.History(habit, from, to)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history for %q: %v", habit, err)), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) logHabit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	habit, err := req.RequireString("habit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireFloat("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date := time.Now().Format("2006-01-02")
	if v, vErr := req.RequireString("date"); vErr == nil && v != "" {
		date = v
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("bad date %q", date)), nil
	}

	if !s.daily.Daily.Enabled {
		return mcp.NewToolResultError("daily notes are not enabled"), nil
	}
	notePath := s.daily.Daily.NotePath(day)

	note, err := s.svc.GetNote(notePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no daily note at %s", notePath)), nil
	}

	occ, ok := findHabitMarker(note.Content, habit)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no marker for %q in %s", habit, notePath)), nil
	}
	p, err := marker.Decode(occ.Type(), occ.Payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updated := marker.WithValue(p, int(value))

	if _, err := s.svc.PatchMarker(notePath, occ.Type(), occ.ID, updated.Encode(), note.Checksum); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("patch failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("logged %s = %d on %s (%s)", habit, int(value), date, notePath)), nil
}

// findHabitMarker locates the first recognised marker referencing habit
// anywhere in content.
func findHabitMarker(content, habit string) (marker.Occurrence, bool) {
	for _, line := range strings.Split(content, "\n") {
		for _, occ := range marker.ScanLine(line) {
			if occ.Habit == habit && occ.Type().Known() {
				return occ, true
			}
		}
	}
	return marker.Occurrence{}, false
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) getMarkerContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkerFormatContract), nil
}

func (s *Server) readMarkerFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "jera://marker-format",
			MIMEType: "text/markdown",
			Text:     MarkerFormatContract,
		},
	}, nil
}
