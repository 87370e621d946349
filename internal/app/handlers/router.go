package handlers

import (
	"net"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/issafronov/siteredirect/internal/metrics"
	"github.com/issafronov/siteredirect/internal/middleware/auth"
	"github.com/issafronov/siteredirect/internal/middleware/compress"
	"github.com/issafronov/siteredirect/internal/middleware/logger"
	redirectmw "github.com/issafronov/siteredirect/internal/middleware/redirect"
	"github.com/issafronov/siteredirect/internal/middleware/trustedsubnet"
)

// Router собирает маршруты сервиса.
// Служебные маршруты не проходят через перенаправление; все остальные пути считаются страницами сайта.
func (h *Handler) Router(trustedNet *net.IPNet) chi.Router {
	router := chi.NewRouter()
	router.Use(logger.RequestLogger)
	router.Use(compress.GzipMiddleware)

	router.Get("/ping", h.Ping)
	if h.config.MetricsEnabled {
		router.Handle("/metrics", metrics.Handler())
	}
	router.Post(h.config.LoginPath, h.LoginHandle)

	router.Route(strings.TrimRight(h.config.AdminPathPrefix, "/"), func(r chi.Router) {
		if trustedNet != nil {
			r.Use(trustedsubnet.TrustedSubnetMiddleware(trustedNet))
		}
		r.Use(auth.AuthorizationMiddleware(h.config.SecretKey))
		r.Get("/settings", h.GetSettingsHandle)
		r.Put("/settings", h.UpdateSettingsHandle)
		r.Post("/decide", h.DecideHandle)
	})

	router.With(redirectmw.RedirectMiddleware(h.service, redirectmw.PathFlags(h.config))).
		HandleFunc("/*", h.SiteHandle)

	return router
}
