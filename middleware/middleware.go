package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const localsRequestID = "requestID"

// RequestRecorder observes completed HTTP requests.
type RequestRecorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestID reuses the caller's X-Request-ID or assigns a new uuid, and
// echoes it on the response.
func RequestID(c *fiber.Ctx) error {
	id := c.Get(HeaderRequestID)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Locals(localsRequestID, id)
	c.Set(HeaderRequestID, id)
	return c.Next()
}

// GetRequestID returns the id assigned by RequestID, if any.
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsRequestID).(string)
	return id
}

// Logger stores a per-request child of logger in the request's user context,
// where handlers and services read it back with zerolog.Ctx, and logs each
// completed request. recorder may be nil.
func Logger(logger zerolog.Logger, recorder RequestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLogger := logger.With().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("remote_ip", c.IP()).
			Str("request_id", GetRequestID(c)).
			Logger()
		c.SetUserContext(reqLogger.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one sent.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		if recorder != nil {
			recorder.ObserveRequest(c.Method(), c.Route().Path, status, elapsed)
		}

		event := reqLogger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = reqLogger.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = reqLogger.Warn().Err(err)
		}
		event.Int("status", status).Dur("duration", elapsed).Msg("request completed")
		return nil
	}
}

// ErrorHandler renders every error as JSON: {"error", "kind"} plus
// kind-specific fields.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	status := apperrors.HTTPStatus(err)
	kind := apperrors.KindOf(err)
	body := fiber.Map{"error": err.Error(), "kind": kind}

	var (
		schemaErr    *apperrors.SchemaError
		validation   *apperrors.ValidationError
		insufficient *apperrors.InsufficientDataError
		notFound     *apperrors.NotFoundError
	)
	switch {
	case errors.As(err, &schemaErr):
		if len(schemaErr.Expected) > 0 {
			body["expected"] = schemaErr.Expected
			body["found"] = schemaErr.Found
		}
	case errors.As(err, &validation):
		body["error"] = validation.Message
		if validation.Field != "" {
			body["field"] = validation.Field
		}
	case errors.As(err, &insufficient):
		body["error"] = "Insufficient historical data"
		body["message"] = fmt.Sprintf("At least %d days of sales data required for forecasting", apperrors.MinDataPoints)
		body["currentDataPoints"] = insufficient.CurrentDataPoints
	case errors.As(err, &notFound):
		if notFound.Message != "" {
			body["error"] = notFound.Message
		}
	case kind == apperrors.KindResponseFormat:
		body["error"] = "Failed to parse AI response"
		body["details"] = err.Error()
	default:
		body["error"] = "Internal server error"
		body["details"] = err.Error()
	}
	return c.Status(status).JSON(body)
}
