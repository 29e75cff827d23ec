package server

import (
	"net/http"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/entities", s.ListEntitiesHandler)
	e.POST("/entities/:id/poll", s.PollSensorHandler)
	e.POST("/discovery", s.PublishDiscoveryHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) ListEntitiesHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ListEntitiesRequest{}, 5*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.ListEntitiesResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	return c.JSON(http.StatusOK, response.Entities)
}

// PollSensorHandler forces an immediate read of a configured sensor.
func (s *Server) PollSensorHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.PollSensorRequest{EntityId: c.Param("id")}, 20*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.PollSensorResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if response.HasResponseError() {
		return echo.NewHTTPError(http.StatusNotFound, response.ResponseError.Error())
	}
	added := response.Added
	if added == nil {
		added = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":    response.EntityId,
		"added": added,
	})
}

// PublishDiscoveryHandler republishes every retained discovery config.
func (s *Server) PublishDiscoveryHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.PublishDiscoveryRequest{}, 10*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.PublishDiscoveryResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	return c.JSON(http.StatusOK, map[string]int{"published": response.Published})
}
