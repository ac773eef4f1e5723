package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/travel"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *conditions.Service) {
	api := app.Group("/api")

	api.Get("/resorts", func(c *fiber.Ctx) error {
		resorts, err := service.GetAllResorts(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch any resort data")
		}
		return c.JSON(resorts)
	})

	api.Get("/resorts/:id", func(c *fiber.Ctx) error {
		req := resortParam{ID: c.Params("id")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rc, err := service.GetResort(c.UserContext(), req.ID)
		if err != nil {
			if errors.Is(err, conditions.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Resort not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch resort data")
		}
		return c.JSON(rc)
	})

	api.Get("/weather", func(c *fiber.Ctx) error {
		forecast, err := service.GetAreaForecast(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch weather data")
		}
		return c.JSON(forecast)
	})

	api.Get("/outlook", func(c *fiber.Ctx) error {
		resorts, err := service.GetAllResorts(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch any resort data")
		}
		return c.JSON(conditions.ComputeOutlook(resorts))
	})

	api.Get("/travel", func(c *fiber.Ctx) error {
		return c.JSON(travel.Current(time.Now()))
	})
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// resortParam holds the path parameter of the single-resort endpoint.
type resortParam struct {
	ID string `validate:"required,max=64"`
}
