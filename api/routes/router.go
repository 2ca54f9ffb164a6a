package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/centrio/centrio-backend/api/controllers"
	"github.com/centrio/centrio-backend/api/middleware"
	"github.com/centrio/centrio-backend/internal/access"
	"github.com/centrio/centrio-backend/internal/media"
	"github.com/centrio/centrio-backend/pkg/config"
	"github.com/centrio/centrio-backend/pkg/enums"
	"github.com/centrio/centrio-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	readiness []controllers.ReadinessCheck,
	mediaService media.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Media.CORSAllowOrigin),
	)

	guard := access.NewGuard()
	limits := controllers.UploadLimits{
		MaxFileBytes:  cfg.Media.MaxUploadBytes(),
		MaxBatchFiles: cfg.Media.MaxBatchFiles,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/files/{storedName}", controllers.MediaFile(cfg.Media.StorageRoot, logg))

	r.Route("/api/v1/media", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/", controllers.MediaUpload(mediaService, guard, limits, logg))
		r.Post("/batch", controllers.MediaBatchUpload(mediaService, guard, limits, logg))
		r.Get("/", controllers.MediaList(mediaService, guard, cfg.Media.MaxPageSize, logg))
		r.Get("/stats", controllers.MediaStats(mediaService, guard, logg))
		r.Get("/category/{category}", controllers.MediaByCategory(mediaService, guard, logg))
		r.Get("/{mediaId}", controllers.MediaGet(mediaService, guard, logg))
		r.Patch("/{mediaId}", controllers.MediaUpdate(mediaService, guard, logg))
		r.Delete("/{mediaId}", controllers.MediaDelete(mediaService, guard, logg))
	})

	r.Route("/api/admin/v1/media", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.MemberRoleAdmin))
		r.Delete("/{mediaId}", controllers.AdminMediaHardDelete(mediaService, guard, logg))
		r.Get("/stats", controllers.AdminMediaStats(mediaService, guard, logg))
	})

	return r
}
