// Package web provides HTTP handlers and REST API endpoints for the workflow builder.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/services"
)

type APIHandlers struct {
	builder   *services.Builder
	validator *validator.Validate
}

func NewAPIHandlers(builder *services.Builder, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		builder:   builder,
		validator: validator,
	}
}

// Register mounts every builder route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	w := router.Group("/workflow")
	w.Get("/", h.GetWorkflow)
	w.Post("/nodes", h.AddNode)
	w.Patch("/nodes/:nodeId", h.UpdateNode)
	w.Delete("/nodes/:nodeId", h.DeleteNode)
	w.Post("/nodes/:nodeId/duplicate", h.DuplicateNode)
	w.Post("/edges", h.AddEdge)
	w.Patch("/edges/:edgeId", h.UpdateEdge)
	w.Delete("/edges/:edgeId", h.DeleteEdge)
	w.Put("/selection", h.Select)
	w.Get("/validation", h.Validate)
	w.Get("/export", h.Export)
	w.Post("/import", h.Import)
	w.Post("/reset", h.Reset)
	w.Post("/publish", h.Publish)

	s := router.Group("/status")
	s.Get("/", h.GetStatus)
	s.Post("/dismiss", h.DismissStatus)
	s.Post("/show", h.ShowStatus)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.builder.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Workflow builder is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Workflow builder is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"persistence": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	return c.JSON(h.builder.Presentation())
}

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	var req AddNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	kind, _ := models.ParseNodeKind(req.Kind)

	id, err := h.builder.Store().AddNode(c.Context(), kind, req.Position)

	warning, err := warningOf(err)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{ID: id, Warning: warning})
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	id := c.Params("nodeId")
	if id == "" {
		return badRequest(c, "Node ID is required")
	}

	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	patch := req.Patch()
	if req.Position == nil && patch.IsEmpty() {
		return badRequest(c, "Nothing to update")
	}

	store := h.builder.Store()

	var response MutationResponse

	if req.Position != nil {
		warning, err := warningOf(store.MoveNode(c.Context(), id, *req.Position))
		if err != nil {
			return handleServiceError(c, err)
		}

		response.Warning = warning
	}

	if !patch.IsEmpty() {
		warning, err := warningOf(store.UpdateNodeData(c.Context(), id, patch))
		if err != nil {
			return handleServiceError(c, err)
		}

		if warning != "" {
			response.Warning = warning
		}
	}

	response.Status = "updated"

	return c.JSON(response)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	id := c.Params("nodeId")
	if id == "" {
		return badRequest(c, "Node ID is required")
	}

	result, err := h.builder.Store().Dispatch(c.Context(), graph.DeleteNode{ID: id})

	warning, err := warningOf(err)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MutationResponse{Status: "deleted", RemovedEdgeIDs: result.RemovedEdgeIDs, Warning: warning})
}

func (h *APIHandlers) DuplicateNode(c fiber.Ctx) error {
	id := c.Params("nodeId")
	if id == "" {
		return badRequest(c, "Node ID is required")
	}

	created, err := h.builder.Store().DuplicateNode(c.Context(), id)

	warning, err := warningOf(err)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{ID: created, Warning: warning})
}

func (h *APIHandlers) AddEdge(c fiber.Ctx) error {
	var req AddEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	id, err := h.builder.Store().AddEdge(c.Context(), models.GraphEdge{
		ID:           req.ID,
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		Attributes:   models.EdgeAttributes{Branch: models.Branch(req.Branch)},
	})

	warning, err := warningOf(err)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{ID: id, Warning: warning})
}

func (h *APIHandlers) UpdateEdge(c fiber.Ctx) error {
	id := c.Params("edgeId")
	if id == "" {
		return badRequest(c, "Edge ID is required")
	}

	var req UpdateEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.Branch == nil {
		return badRequest(c, "Branch is required")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	branch := models.Branch(*req.Branch)

	warning, err := warningOf(h.builder.Store().UpdateEdgeData(c.Context(), id, models.EdgeAttributesPatch{Branch: &branch}))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MutationResponse{Status: "updated", Warning: warning})
}

func (h *APIHandlers) DeleteEdge(c fiber.Ctx) error {
	id := c.Params("edgeId")
	if id == "" {
		return badRequest(c, "Edge ID is required")
	}

	warning, err := warningOf(h.builder.Store().DeleteEdge(c.Context(), id))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MutationResponse{Status: "deleted", Warning: warning})
}

func (h *APIHandlers) Select(c fiber.Ctx) error {
	var req SelectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	store := h.builder.Store()

	var err error
	if req.EdgeID != "" {
		err = store.SelectEdge(req.EdgeID)
	} else {
		err = store.SelectNode(req.NodeID)
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(store.Selection())
}

func (h *APIHandlers) Validate(c fiber.Ctx) error {
	return c.JSON(h.builder.Validate())
}

func (h *APIHandlers) Export(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="workflow.json"`)

	return c.JSON(h.builder.Export())
}

func (h *APIHandlers) Import(c fiber.Ctx) error {
	warning, err := warningOf(h.builder.Import(c.Context(), c.Body()))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MutationResponse{Status: "imported", Warning: warning})
}

func (h *APIHandlers) Reset(c fiber.Ctx) error {
	warning, err := warningOf(h.builder.Reset(c.Context()))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MutationResponse{Status: "reset", Warning: warning})
}

func (h *APIHandlers) Publish(c fiber.Ctx) error {
	result, err := h.builder.Publish(c.Context())
	if err != nil && result == nil {
		return handleServiceError(c, err)
	}

	response := PublishResponse{WorkflowID: result.WorkflowID}

	switch {
	case err != nil:
		response.Warning = err.Error()
	case result.Warning != nil:
		response.Warning = result.Warning.Error()
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetStatus(c fiber.Ctx) error {
	return c.JSON(h.builder.Status(c.Context()))
}

func (h *APIHandlers) DismissStatus(c fiber.Ctx) error {
	return h.setPanelDismissed(c, true)
}

func (h *APIHandlers) ShowStatus(c fiber.Ctx) error {
	return h.setPanelDismissed(c, false)
}

func (h *APIHandlers) setPanelDismissed(c fiber.Ctx, dismissed bool) error {
	if err := h.builder.SetPanelDismissed(c.Context(), dismissed); err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"panelDismissed": dismissed})
}
