package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/velichan/radarview/internal/radar"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *radar.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/radar/latest", func(c *fiber.Ctx) error {
		rendered, err := service.GetLatest(c.UserContext())
		if err != nil {
			if errors.Is(err, radar.ErrRender) {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to render radar frame")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to produce radar frame")
		}
		return c.JSON(rendered.View(c.BaseURL()))
	})

	v1.Get("/radar/timestamps", func(c *fiber.Ctx) error {
		stamps := service.Timestamps()
		out := make([]string, 0, len(stamps))
		for _, ts := range stamps {
			out = append(out, ts.Format(time.RFC3339))
		}
		return c.JSON(out)
	})

	v1.Get("/radar/:timestamp", func(c *fiber.Ctx) error {
		req := timestampParam{Timestamp: c.Params("timestamp")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "timestamp must be RFC3339 or unix seconds")
		}
		ts, err := parseTime(req.Timestamp)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rendered, err := service.GetByTimestamp(c.UserContext(), ts)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to produce radar frame")
		}
		return c.JSON(rendered.View(c.BaseURL()))
	})
}

// timestampParam holds the path parameter for the by-timestamp endpoint.
type timestampParam struct {
	Timestamp string `validate:"required"`
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
