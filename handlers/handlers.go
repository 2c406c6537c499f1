// Package handlers implements the HTTP surface of the forecasting service.
// Handlers decode requests, call into the ingest and forecast packages and
// render JSON; errors are returned to fiber and rendered by
// middleware.ErrorHandler.
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lonshanworld/inventory-forecasting/database"
	"github.com/lonshanworld/inventory-forecasting/forecast"
	"github.com/lonshanworld/inventory-forecasting/ingest"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	ingest      *ingest.Service
	forecasts   *forecast.Orchestrator
	store       database.Store
	defaultDays int
	now         func() time.Time
}

// Deps are the collaborators a Handler is built from.
type Deps struct {
	Ingest      *ingest.Service
	Forecasts   *forecast.Orchestrator
	Store       database.Store
	DefaultDays int
	// Now defaults to time.Now.
	Now func() time.Time
}

// New builds a Handler.
func New(deps Deps) *Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		ingest:      deps.Ingest,
		forecasts:   deps.Forecasts,
		store:       deps.Store,
		defaultDays: deps.DefaultDays,
		now:         now,
	}
}

func badBody() error {
	return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
}
