package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/fitjournal/internal/bests"
	"github.com/2beens/fitjournal/internal/journal"
	"github.com/2beens/fitjournal/internal/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type journalProvider interface {
	Journal(userID string) (journal.Journal, error)
}

type catalogReader interface {
	Exercises(ctx context.Context, userID string) ([]workouts.Exercise, error)
	Metcons(ctx context.Context, userID string) ([]workouts.Metcon, error)
}

// Handler serves the MCP tools of one signed-in user.
type Handler struct {
	userID   string
	journals journalProvider
	catalog  catalogReader
}

func NewHandler(userID string, journals journalProvider, catalog catalogReader) *Handler {
	return &Handler{
		userID:   userID,
		journals: journals,
		catalog:  catalog,
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: %s", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

// loadedJournal returns the journal of the user, or an error result while
// it is not available or still loading.
func (h *Handler) loadedJournal() (journal.Journal, *mcp.CallToolResult) {
	j, err := h.journals.Journal(h.userID)
	if err != nil {
		return nil, errorResult("Error opening journal: %s", err)
	}
	if j.Loading() {
		return nil, errorResult("Journal is still loading, try again shortly.")
	}
	return j, nil
}

// PersonalBestsInput is the input for get_personal_bests.
type PersonalBestsInput struct {
	Type   string `json:"type,omitempty" jsonschema:"Filter by type: all, strength, cardio or metcon"`
	Search string `json:"search,omitempty" jsonschema:"Case-insensitive substring of the exercise or metcon name"`
}

// GetPersonalBestsTool returns the MCP tool handler for get_personal_bests.
func (h *Handler) GetPersonalBestsTool() func(context.Context, *mcp.CallToolRequest, PersonalBestsInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in PersonalBestsInput) (*mcp.CallToolResult, any, error) {
		kind := bests.KindAll
		if in.Type != "" {
			kind = bests.Kind(in.Type)
		}
		if !kind.IsValid() {
			return errorResult("Invalid type: use all, strength, cardio or metcon"), nil, nil
		}

		j, res := h.loadedJournal()
		if res != nil {
			return res, nil, nil
		}
		return jsonResult(bests.Filter(j.Bests(), kind, in.Search)), nil, nil
	}
}

// JournalInput is the input for get_journal.
type JournalInput struct {
	FromDate string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD), inclusive"`
	ToDate   string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
}

// GetJournalTool returns the MCP tool handler for get_journal.
func (h *Handler) GetJournalTool() func(context.Context, *mcp.CallToolRequest, JournalInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in JournalInput) (*mcp.CallToolResult, any, error) {
		if in.FromDate != "" {
			if _, err := workouts.ParseDate(in.FromDate); err != nil {
				return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
			}
		}
		if in.ToDate != "" {
			if _, err := workouts.ParseDate(in.ToDate); err != nil {
				return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
			}
		}

		j, res := h.loadedJournal()
		if res != nil {
			return res, nil, nil
		}

		// canonical dates compare correctly as strings
		list := make([]workouts.Workout, 0)
		for _, w := range j.List() {
			if in.FromDate != "" && w.Date < in.FromDate {
				continue
			}
			if in.ToDate != "" && w.Date > in.ToDate {
				continue
			}
			list = append(list, w)
		}
		return jsonResult(list), nil, nil
	}
}

type catalogResult struct {
	Exercises []workouts.Exercise `json:"exercises"`
	Metcons   []workouts.Metcon   `json:"metcons"`
}

// GetExerciseCatalogTool returns the MCP tool handler for get_exercise_catalog.
func (h *Handler) GetExerciseCatalogTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		exercises, err := h.catalog.Exercises(ctx, h.userID)
		if err != nil {
			return errorResult("Error fetching exercises: %s", err), nil, nil
		}
		metcons, err := h.catalog.Metcons(ctx, h.userID)
		if err != nil {
			return errorResult("Error fetching metcons: %s", err), nil, nil
		}
		return jsonResult(catalogResult{Exercises: exercises, Metcons: metcons}), nil, nil
	}
}
