package onboarding

import (
	"net/http"
	"time"

	"github.com/2beens/fitjournal/pkg"
)

const (
	CookieName = "visited"
	CookieTTL  = 7 * 24 * time.Hour
)

// HasVisited reports whether the client saw the welcome screen in the last week.
func HasVisited(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	return err == nil && c.Value == "true"
}

func MarkVisited(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "true",
		Path:     "/",
		Expires:  time.Now().Add(CookieTTL),
		MaxAge:   int(CookieTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie, used on logout.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

type WelcomeResponse struct {
	ShowWelcome bool `json:"showWelcome"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (handler *Handler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	pkg.WriteJSONResponse(w, WelcomeResponse{ShowWelcome: !HasVisited(r)}, http.StatusOK)
}

func (handler *Handler) HandleWelcomeDone(w http.ResponseWriter, r *http.Request) {
	MarkVisited(w)
	pkg.WriteJSONResponse(w, WelcomeResponse{ShowWelcome: false}, http.StatusOK)
}
