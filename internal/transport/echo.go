package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/service"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/validator"
)

type Options struct {
	// JWTSecret enables HS256 bearer verification when non-empty.
	JWTSecret string
}

// NewEcho creates the gateway emulator's HTTP server.
func NewEcho(svc *service.Service, opts Options) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	customVal, err := validator.New()
	if err != nil {
		return nil, err
	}
	e.Validator = customVal

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	SetupRoute(e, svc, opts)

	return e, nil
}
