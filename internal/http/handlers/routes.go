package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	httpmw "github.com/diagnosis/lifesave-bloodbank/internal/http/middleware"
	"github.com/diagnosis/lifesave-bloodbank/pkg/metrics"
	mw "github.com/diagnosis/lifesave-bloodbank/pkg/middleware"
)

// registrationReplayTTL is how long a registration response is replayed for a
// repeated Idempotency-Key.
const registrationReplayTTL = 24 * time.Hour

// RouterDeps carries the optional infrastructure the router wires in. Nil
// stores disable rate limiting and idempotent replay.
type RouterDeps struct {
	Metrics     *metrics.Metrics
	RateLimits  httpmw.HitCounter
	Idempotency mw.IdempotencyStore
}

func (h *Handlers) Router(deps RouterDeps) http.Handler {
	gate := httpmw.NewAuth(h.auth, h.dev())

	loginLimit := httpmw.NewRateLimiter(deps.RateLimits, httpmw.RateLimitConfig{
		Name:       "login",
		Requests:   h.cfg.Auth.LoginRateLimit,
		Window:     h.cfg.Donor.RateLimitWindow,
		TrustProxy: h.cfg.Server.TrustProxy,
	})
	registerLimit := httpmw.NewRateLimiter(deps.RateLimits, httpmw.RateLimitConfig{
		Name:       "register",
		Requests:   h.cfg.Donor.RegisterRateLimit,
		Window:     h.cfg.Donor.RateLimitWindow,
		TrustProxy: h.cfg.Server.TrustProxy,
	})
	clientIP := func(r *http.Request) string { return httpmw.ClientIP(r, h.cfg.Server.TrustProxy) }

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("bloodbank"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	if deps.Metrics != nil {
		r.Use(mw.Metrics(deps.Metrics))
	}
	r.Use(mw.Health(h.cfg.Server.Env))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit.Middleware()).Post("/login", h.Login)
			r.With(gate.Require()).Get("/verify", h.Verify)
			if h.cfg.Auth.AllowDevSeed {
				r.Post("/create-admin", h.CreateAdmin)
			}
		})

		r.Route("/donors", func(r chi.Router) {
			r.With(
				registerLimit.Middleware(),
				mw.IdempotencyMiddleware(deps.Idempotency, registrationReplayTTL, clientIP),
			).Post("/register", h.RegisterDonor)

			files := gate.Require(domain.CapViewDonorFiles)
			if h.donors.FilesArePublic() {
				files = gate.Optional
			}
			r.With(files).Get("/photo/{id}", h.DonorPhoto)
			r.With(files).Get("/document/{id}", h.DonorDocument)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(gate.Require(domain.CapReviewDonors))
			r.Get("/pending-donors", h.PendingDonors)
			r.Get("/approved-donors", h.ApprovedDonors)
			r.Post("/approve-donor/{id}", h.ApproveDonor)
			r.Post("/reject-donor/{id}", h.RejectDonor)
			r.Get("/stats", h.StaffStats)
			r.Get("/export-donors", h.ExportApprovedDonors)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/staff", func(r chi.Router) {
				r.Use(gate.Require(domain.CapManageStaff))
				r.Get("/", h.ListStaff)
				r.Post("/", h.CreateStaff)
				r.Put("/{id}", h.UpdateStaff)
				r.Delete("/{id}", h.DeleteStaff)
			})

			r.Group(func(r chi.Router) {
				r.Use(gate.Require(domain.CapManageDonors))
				r.Get("/donors", h.AllDonors)
				r.Get("/rejected-donors", h.RejectedDonors)
				r.Delete("/rejected-donors/{id}", h.DeleteRejectedDonor)
			})

			r.With(gate.Require(domain.CapViewStats)).Get("/stats", h.AdminStats)
			r.With(gate.Require(domain.CapExport)).Get("/export/{type}", h.Export)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	return r
}
