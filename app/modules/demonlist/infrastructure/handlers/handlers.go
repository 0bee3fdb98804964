package demonlisthandlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	demonlistservice "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/application"
	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// DemonListHandlers implements Handlers on top of the demon list service.
type DemonListHandlers struct {
	service demonlistservice.Service
	view    *ListView
	queue   ReconcileEnqueuer
	logger  *slog.Logger
}

var _ Handlers = (*DemonListHandlers)(nil)

// NewDemonListHandlers creates the HTTP handlers. queue may be nil, in which case
// reconcile requests run inline.
func NewDemonListHandlers(
	service demonlistservice.Service,
	view *ListView,
	queue ReconcileEnqueuer,
	logger *slog.Logger,
) *DemonListHandlers {
	return &DemonListHandlers{
		service: service,
		view:    view,
		queue:   queue,
		logger:  logger,
	}
}

// RegisterRoutes mounts the API on r. Writes under /api are rate limited per client IP.
func RegisterRoutes(r chi.Router, h Handlers, limiter *IPRateLimiter, allowedOrigins []string) {
	r.Get("/healthz", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(CORSMiddleware(allowedOrigins))
		r.Use(RateLimitMiddleware(limiter))

		r.Route("/levels", func(r chi.Router) {
			r.Get("/", h.HandleListLevels)
			r.Post("/", h.HandleAddLevel)
			r.Patch("/{id}", h.HandleUpdateLevel)
			r.Delete("/{id}", h.HandleDeleteLevel)
			r.Put("/{id}/difficulty", h.HandleSetDifficulty)
			r.Put("/{id}/progress/{player}", h.HandleSetProgress)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.HandleListPlayers)
			r.Post("/", h.HandleAddPlayer)
			r.Delete("/{name}", h.HandleRemovePlayer)
			r.Get("/{name}/points", h.HandlePlayerPoints)
		})

		r.Get("/standings", h.HandleStandings)
		r.Get("/standings/chart.png", h.HandleStandingsChart)
		r.Get("/export.xlsx", h.HandleExport)
		r.Post("/import", h.HandleImport)
		r.Post("/reconcile", h.HandleReconcile)
	})
}

// HandleHealth answers GET /healthz.
func (h *DemonListHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a JSON body of at most maxBodyBytes into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("body", "request body is empty")
		}
		return badRequest("body", "malformed JSON")
	}
	return nil
}

func levelIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, badRequest("id", "not a valid level id")
	}
	return id, nil
}

func scopeParam(r *http.Request) (demonlistdomain.Scope, error) {
	return demonlistdomain.ParseScope(r.URL.Query().Get("scope"))
}

// parsePercent accepts a JSON number or a string such as "55" or "55%". Anything else
// reads as 0.
func parsePercent(raw json.RawMessage) float64 {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return demonlistdomain.ParsePercent(s)
	}
	return 0
}
