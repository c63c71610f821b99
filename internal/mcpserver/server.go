package mcpserver

import (
	"net/http"

	"github.com/2beens/fitjournal/internal/auth"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

// NewServer builds an MCP server exposing the journal of one user: personal
// bests, logged workouts and the exercise/metcon catalog.
func NewServer(userID string, journals journalProvider, catalog catalogReader) *mcp.Server {
	h := NewHandler(userID, journals, catalog)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "fitjournal",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_personal_bests",
		Description: "Returns the personal bests derived from the workout journal: heaviest strength set per exercise, fastest time per cardio exercise and distance, best score per metcon. Optional filters: type (all, strength, cardio, metcon), search (name substring).",
	}, h.GetPersonalBestsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_journal",
		Description: "Returns the logged workouts, newest first. Optional args: from_date, to_date (YYYY-MM-DD, inclusive). Use when you need to see what was trained in a period.",
	}, h.GetJournalTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_exercise_catalog",
		Description: "Returns the user's exercises (name, strength or cardio) and metcons (name, type, description, time cap).",
	}, h.GetExerciseCatalogTool())

	return s
}

// NewHTTPHandler serves MCP over streamable HTTP. Every request gets a server
// bound to the user the auth middleware resolved, so sessions are not kept.
// Requests without a user are rejected.
func NewHTTPHandler(journals journalProvider, catalog catalogReader) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		userID, _ := auth.UserIDFrom(r.Context())
		return NewServer(userID, journals, catalog)
	}, &mcp.StreamableHTTPOptions{Stateless: true})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserIDFrom(r.Context()); !ok {
			log.Warnf("mcp: request without user reached the handler: %s", r.URL.Path)
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		streamable.ServeHTTP(w, r)
	})
}
