package controller

import (
	"context"
	"net/http"
	"time"

	httpdto "github.com/vibast-solutions/ms-go-booking/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

type pinger interface {
	PingContext(ctx context.Context) error
}

type HealthController struct {
	db     pinger
	events pinger
}

// NewHealthController checks the database and, when configured, the event
// broker. events may be nil.
func NewHealthController(db pinger, events pinger) *HealthController {
	return &HealthController{db: db, events: events}
}

func (c *HealthController) Healthz(ctx echo.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()

	resp := httpdto.HealthResponse{Status: "ok", Database: "ok", Events: "memory"}
	status := http.StatusOK

	if err := c.db.PingContext(checkCtx); err != nil {
		logrus.WithError(err).Warn("Database health check failed")
		resp.Status, resp.Database = "unavailable", "unavailable"
		status = http.StatusServiceUnavailable
	}

	if c.events != nil {
		resp.Events = "ok"
		if err := c.events.PingContext(checkCtx); err != nil {
			logrus.WithError(err).Warn("Event broker health check failed")
			resp.Status, resp.Events = "unavailable", "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	return ctx.JSON(status, resp)
}
