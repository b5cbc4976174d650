package transport

import (
	"github.com/labstack/echo/v4"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/service"
)

type Handler struct {
	svc *service.Service
}

func SetupRoute(e *echo.Echo, svc *service.Service, opts Options) {
	h := &Handler{svc: svc}

	// Presigned links carry their own authorization.
	e.GET("/api/files-proxy/shared/:id", h.Shared)

	api := e.Group("/api/files-proxy", requireBearer(opts.JWTSecret))
	api.POST("/store-bytes", h.StoreBytes)
	api.GET("/by-key/presigned-url", h.PresignedURL)
	api.HEAD("/by-key/exists", h.Exists)
	api.GET("/by-key/size", h.Size)
	api.GET("/by-key/download", h.Download)
	api.DELETE("/by-key", h.Delete)
}
