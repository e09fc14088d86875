package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/carrier-bindings/internal/api/middleware"
	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

// ctxPrincipal extracts the caller injected by the Auth middleware. A missing
// role means the middleware never ran, so the request is rejected with 401.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	role, _ := c.Get(middleware.RoleKey).(string)
	if role == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	subject, _ := c.Get(middleware.SubjectKey).(string)
	return domain.Principal{Subject: subject, Role: role}, nil
}
