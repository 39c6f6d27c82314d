// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"strom_dashboard/internal/dashboard"
	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/log"
)

// Renderer renders dashboards. *dashboard.Pipeline implements it.
type Renderer interface {
	Run(ctx context.Context, ref time.Time) dashboard.ViewModel
	Now() time.Time
	Location() *time.Location
}

// DayLister lists the days a local source holds readings for.
type DayLister interface {
	Days(ctx context.Context) ([]string, error)
}

// Deps are the collaborators of the router. Days, WS, BackendDir and
// FrontendDir are optional.
type Deps struct {
	Dashboard Renderer
	Source    fetch.Source
	Days      DayLister
	WS        http.Handler

	// BackendDir, when set, is served as the meter backend: /history/ and
	// /strom.json.
	BackendDir  string
	FrontendDir string
	CORSOrigins []string
}

const dayPattern = "{day:[0-9]{4}-[0-9]{2}-[0-9]{2}}"

// NewRouter wires all routes and wraps them in the CORS policy.
func NewRouter(d Deps) http.Handler {
	h := &handlers{deps: d}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/dashboard", h.dashboard).Methods(http.MethodGet)
	apiRouter.HandleFunc("/day/"+dayPattern, h.day).Methods(http.MethodGet)
	apiRouter.HandleFunc("/day/{day}", h.invalidDay).Methods(http.MethodGet)
	apiRouter.HandleFunc("/days", h.days).Methods(http.MethodGet)
	apiRouter.NotFoundHandler = http.HandlerFunc(notFound)

	if d.WS != nil {
		r.Handle("/ws", d.WS)
	}

	if d.BackendDir != "" {
		files := http.FileServer(http.Dir(d.BackendDir))
		r.PathPrefix("/history/").Handler(files).Methods(http.MethodGet, http.MethodHead)
		r.Handle("/strom.json", files).Methods(http.MethodGet, http.MethodHead)
		log.Infof("Serving meter backend from %s", d.BackendDir)
	}

	if d.FrontendDir != "" {
		if _, err := os.Stat(d.FrontendDir); err == nil {
			log.Infof("Serving frontend from %s", d.FrontendDir)
			r.PathPrefix("/").Handler(http.FileServer(http.Dir(d.FrontendDir)))
		} else {
			log.Warnf("Frontend dir %s not found, not serving static files", d.FrontendDir)
		}
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, NewAPIError(ErrorCodeNotFound, "no such endpoint: "+r.URL.Path, nil, http.StatusNotFound))
}
