package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/services"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/validation"
)

// ViolationsProblem is the 422 body of a blocked publish.
type ViolationsProblem struct {
	*problems.Problem

	Violations []validation.Violation `json:"violations"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for store and service errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsNotPublishable(err):
		problem := ViolationsProblem{
			Problem: problems.NewStatusProblem(422).
				WithInstance(c.Path()).
				WithType("not_publishable").
				WithDetail("workflow does not satisfy the publish rules"),
			Violations: services.ViolationsOf(err),
		}

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case services.IsEngineError(err):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("engine_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.Is(err, graph.ErrNodeNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("node_not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, graph.ErrEdgeNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("edge_not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		return internalError(c, err)
	}
}

// warningOf splits a store result into a hard error and a persistence warning.
func warningOf(err error) (string, error) {
	if err == nil {
		return "", nil
	}

	if graph.IsPersistWarning(err) {
		return err.Error(), nil
	}

	return "", err
}
