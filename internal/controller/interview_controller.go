package controller

import (
	"errors"

	"interview-engine-be/internal/dto"
	"interview-engine-be/internal/pkg/serverutils"
	"interview-engine-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Begin(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
	SubmitAnswer(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type interviewController struct {
	service service.IInterviewService
}

func NewInterviewController(service service.IInterviewService) IInterviewController {
	return &interviewController{service: service}
}

func (c *interviewController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/interview/v1")
	h.Use(auth)
	h.Post("begin", c.Begin)
	h.Get(":key", c.Show)
	h.Post(":key/resume", c.Resume)
	h.Post(":key/answer", c.SubmitAnswer)
	h.Post(":key/complete", c.Complete)
	h.Post(":key/reset", c.Reset)
}

func (c *interviewController) Begin(ctx *fiber.Ctx) error {
	var req dto.BeginInterviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Begin(ctx.Context(), &req)
	if err != nil {
		return mapInterviewError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Interview started", res))
}

func (c *interviewController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.Context(), ctx.Params("key"))
	if err != nil {
		return mapInterviewError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Interview state", res))
}

func (c *interviewController) Resume(ctx *fiber.Ctx) error {
	res, err := c.service.Resume(ctx.Context(), ctx.Params("key"))
	if err != nil {
		return mapInterviewError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Interview resumed", res))
}

func (c *interviewController) SubmitAnswer(ctx *fiber.Ctx) error {
	var req dto.SubmitAnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, inputErr, err := c.service.SubmitAnswer(ctx.Context(), ctx.Params("key"), &req)
	if err != nil {
		return mapInterviewError(err)
	}
	if inputErr != nil {
		// The question is re-asked verbatim; nothing about the session moved.
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(dto.AnswerRejectedResponse{
			Qid:      inputErr.Qid,
			Message:  inputErr.Message,
			Question: res.Question,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Answer accepted", res))
}

func (c *interviewController) Complete(ctx *fiber.Ctx) error {
	res, err := c.service.Complete(ctx.Context(), ctx.Params("key"))
	if err != nil {
		return mapInterviewError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Interview completed", res))
}

func (c *interviewController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.Context(), ctx.Params("key"))
	if err != nil {
		return mapInterviewError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Interview reset", res))
}

func mapInterviewError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownFlow), errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionExists),
		errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrWrongQuestion),
		errors.Is(err, service.ErrNotAtEnd):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
