package controller

import (
	"errors"

	"interview-engine-be/internal/pkg/serverutils"
	"interview-engine-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISchemaController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Reload(ctx *fiber.Ctx) error
	FlowQuestions(ctx *fiber.Ctx) error
}

type schemaController struct {
	service service.ISchemaService
}

func NewSchemaController(service service.ISchemaService) ISchemaController {
	return &schemaController{service: service}
}

func (c *schemaController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/schema/v1")
	h.Use(auth)
	h.Post("reload", c.Reload)
	h.Get("flows/:flow", c.FlowQuestions)
}

func (c *schemaController) Reload(ctx *fiber.Ctx) error {
	res, err := c.service.Reload(ctx.Context())
	if err != nil {
		return err
	}

	if !res.Applied {
		// Operator error, not a server fault: the previous schema stays live.
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Schema rejected",
			"data":    res,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Schema reloaded", res))
}

func (c *schemaController) FlowQuestions(ctx *fiber.Ctx) error {
	res, err := c.service.FlowQuestions(ctx.Context(), ctx.Params("flow"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownFlow) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Flow questions", res))
}
