// Package httpapi is the portal's REST surface: routing, middleware, the
// JSON envelope and the translation of service errors into responses.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/incidentportal/internal/logging"
	"github.com/dmitrijs2005/incidentportal/internal/server/config"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
	"github.com/dmitrijs2005/incidentportal/internal/server/ratelimit"
	"github.com/dmitrijs2005/incidentportal/internal/server/services"
	"github.com/dmitrijs2005/incidentportal/internal/server/storage"
	"github.com/dmitrijs2005/incidentportal/internal/server/validation"
)

const msgServerRunning = "Server is running"

type UserService interface {
	Register(ctx context.Context, in validation.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in validation.LoginInput) (*services.AuthResult, error)
	Profile(ctx context.Context, id string) (*services.AuthResult, error)
}

type IncidentService interface {
	Create(ctx context.Context, in validation.IncidentInput, img *models.ImageUpload) (*models.Incident, error)
	List(ctx context.Context) ([]models.IncidentSummary, error)
	Get(ctx context.Context, id string) (*models.Incident, error)
	Update(ctx context.Context, id string, in validation.IncidentInput) (*models.Incident, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators the router needs. Limiter may be nil, which
// disables rate limiting.
type Deps struct {
	Config    *config.Config
	Log       logging.Logger
	Users     UserService
	Incidents IncidentService
	Images    storage.ImageStore
	Limiter   *ratelimit.Limiter
}

type api struct {
	log       logging.Logger
	users     UserService
	incidents IncidentService
	images    storage.ImageStore
	limiter   *ratelimit.Limiter
	jwtSecret []byte
	now       func() time.Time

	maxUploadSize int64
}

// NewRouter builds the HTTP handler tree.
func NewRouter(d Deps) http.Handler {
	a := &api{
		log:       d.Log.With("module", "http"),
		users:     d.Users,
		incidents: d.Incidents,
		images:    d.Images,
		limiter:   d.Limiter,
		jwtSecret: []byte(d.Config.SecretKey),
		now:       time.Now,

		maxUploadSize: d.Config.MaxUploadSize,
	}
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.accessLog)
	r.Use(a.recoverer)
	r.Use(a.metrics)
	r.Use(corsHandler(cfg.CORSOrigins()))
	r.Use(securityHeaders)
	r.Use(middleware.Compress(5))
	r.Use(a.rateLimit)
	r.Use(middleware.RequestSize(cfg.MaxBodySize))

	r.NotFound(a.notFound)
	r.MethodNotAllowed(a.notFound)

	r.Handle("/metrics", promhttp.Handler())
	r.Get(cfg.UploadURLPrefix+"/{filename}", a.serveImage)

	routes := func(r chi.Router) {
		r.Get("/health", a.health)
		r.Get("/uploads/{filename}", a.serveImage)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.register)
			r.Post("/login", a.login)
			r.With(a.authenticate, a.requireAuth).Get("/profile/{id}", a.profile)
		})

		r.Route("/incidents", func(r chi.Router) {
			r.Use(a.authenticate, a.requireAuth)
			r.Get("/", a.listIncidents)
			r.Post("/", a.createIncident)
			r.Get("/{id}", a.getIncident)
			r.Put("/{id}", a.updateIncident)
			r.Delete("/{id}", a.deleteIncident)
		})
	}

	if cfg.BasePath == "" {
		r.Group(routes)
	} else {
		r.Route(cfg.BasePath, routes)
	}

	return r
}

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Message:   msgServerRunning,
		Timestamp: a.now().UTC().Format(time.RFC3339),
	})
}

func (a *api) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{Success: false, Error: "Not found - " + r.URL.Path})
}
