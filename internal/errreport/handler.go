package errreport

import (
	"net/http"

	"github.com/2beens/fitjournal/internal/auth"
	"github.com/2beens/fitjournal/pkg"
)

type RecentResponse struct {
	Failures []WriteFailed `json:"failures"`
}

type Handler struct {
	recent *Recent
}

func NewHandler(recent *Recent) *Handler {
	return &Handler{
		recent: recent,
	}
}

func (handler *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	pkg.WriteJSONResponse(w, RecentResponse{Failures: handler.recent.For(userID)}, http.StatusOK)
}
