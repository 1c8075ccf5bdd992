package web_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/channels/gochannel"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/mocks"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence/file"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/publisher"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/services"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/stream"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/subscription"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/testutil"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/validation"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app         *fiber.App
	store       *graph.Store
	engine      *mocks.MockEngine
	persistence persistence.Persistence
}

func setupTestApp(t *testing.T, cache persistence.Persistence) *testEnv {
	t.Helper()

	if cache == nil {
		cache = file.NewPersistence(t.TempDir())
	}

	store, err := graph.NewStore(t.Context(), cache, slog.Default(),
		graph.WithClock(func() time.Time { return testutil.FixedTime }),
	)
	require.NoError(t, err)

	_, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(slog.Default()))
	require.NoError(t, err)

	client := subscription.NewClient(stream.NewWatermillSource("gochannel", sub, "", slog.Default()), cache, slog.Default())
	t.Cleanup(func() {
		assert.NoError(t, client.Close())
	})

	engine := &mocks.MockEngine{}
	builder := services.NewBuilder(store, engine, client, cache, slog.Default())

	app := fiber.New()
	web.NewAPIHandlers(builder, validator.New(validator.WithRequiredStructEnabled())).Register(app)

	return &testEnv{app: app, store: store, engine: engine, persistence: cache}
}

func (e *testEnv) loadPublishable(t *testing.T) {
	t.Helper()
	require.NoError(t, e.store.ReplaceDocument(t.Context(), testutil.PublishableDocument()))
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))

	return out
}

func stringPtr(s string) *string {
	return &s
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	env := setupTestApp(t, nil)

	status, body := env.do(t, http.MethodGet, "/workflow", nil)
	require.Equal(t, http.StatusOK, status)

	presentation := decode[services.Presentation](t, body)
	require.Len(t, presentation.Document.Nodes, 1)
	assert.Equal(t, models.StartNodeID, presentation.Document.Nodes[0].ID)
	assert.Equal(t, services.RunStatePending, presentation.Nodes[models.StartNodeID])
	assert.Empty(t, presentation.WorkflowID)
}

func TestAPIHandlers_AddNode(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "approval node",
			requestBody:    web.AddNodeRequest{Kind: "approval", Position: models.Position{X: 10, Y: 20}},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown kind",
			requestBody:    web.AddNodeRequest{Kind: "timer"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing kind",
			requestBody:    web.AddNodeRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestApp(t, nil)

			status, body := env.do(t, http.MethodPost, "/workflow/nodes", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedStatus != http.StatusCreated {
				assert.Len(t, env.store.Document().Nodes, 1)

				return
			}

			created := decode[web.CreatedResponse](t, body)
			assert.NotEmpty(t, created.ID)
			assert.Empty(t, created.Warning)

			node := env.store.Document().NodeByID(created.ID)
			require.NotNil(t, node)
			assert.Equal(t, models.NodeKindApproval, node.Kind)
			assert.Equal(t, models.Position{X: 10, Y: 20}, node.Position)
		})
	}
}

func TestAPIHandlers_UpdateNode(t *testing.T) {
	tests := []struct {
		name           string
		nodeID         string
		requestBody    any
		expectedStatus int
		check          func(t *testing.T, node *models.GraphNode)
	}{
		{
			name:   "attributes",
			nodeID: "approval",
			requestBody: web.UpdateNodeRequest{
				RecipientEmail: stringPtr("lead@example.com"),
				ApproverName:   stringPtr("Lead"),
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, node *models.GraphNode) {
				t.Helper()
				assert.Equal(t, "lead@example.com", node.Attributes.RecipientEmail)
				assert.Equal(t, "Lead", node.Attributes.ApproverName)
				assert.Equal(t, "Approval", node.Attributes.Label)
			},
		},
		{
			name:           "position",
			nodeID:         "approval",
			requestBody:    web.UpdateNodeRequest{Position: &models.Position{X: 1, Y: 2}},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, node *models.GraphNode) {
				t.Helper()
				assert.Equal(t, models.Position{X: 1, Y: 2}, node.Position)
			},
		},
		{
			name:           "clear recipient",
			nodeID:         "approval",
			requestBody:    web.UpdateNodeRequest{RecipientEmail: stringPtr("")},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, node *models.GraphNode) {
				t.Helper()
				assert.Empty(t, node.Attributes.RecipientEmail)
				assert.False(t, node.Attributes.HasRecipient())
			},
		},
		{
			name:           "invalid email",
			nodeID:         "approval",
			requestBody:    web.UpdateNodeRequest{RecipientEmail: stringPtr("not-an-email")},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty update",
			nodeID:         "approval",
			requestBody:    web.UpdateNodeRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown node",
			nodeID:         "ghost",
			requestBody:    web.UpdateNodeRequest{Label: stringPtr("x")},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestApp(t, nil)
			env.loadPublishable(t)

			status, body := env.do(t, http.MethodPatch, "/workflow/nodes/"+tt.nodeID, tt.requestBody)
			assert.Equal(t, tt.expectedStatus, status, string(body))

			if tt.check != nil {
				tt.check(t, env.store.Document().NodeByID(tt.nodeID))
			}
		})
	}
}

func TestAPIHandlers_DeleteNode(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	status, body := env.do(t, http.MethodDelete, "/workflow/nodes/approval", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	response := decode[web.MutationResponse](t, body)
	assert.ElementsMatch(t, []string{"e-start", "e-approve", "e-deny"}, response.RemovedEdgeIDs)

	doc := env.store.Document()
	assert.Nil(t, doc.NodeByID("approval"))
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "e-notify", doc.Edges[0].ID)

	status, body = env.do(t, http.MethodDelete, "/workflow/nodes/approval", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "node_not_found")
}

func TestAPIHandlers_DuplicateNode(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	status, body := env.do(t, http.MethodPost, "/workflow/nodes/approval/duplicate", nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[web.CreatedResponse](t, body)
	clone := env.store.Document().NodeByID(created.ID)
	require.NotNil(t, clone)
	assert.Equal(t, "manager@example.com", clone.Attributes.RecipientEmail)
	assert.Len(t, env.store.Document().Edges, 4)

	status, _ = env.do(t, http.MethodPost, "/workflow/nodes/ghost/duplicate", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_Edges(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	status, body := env.do(t, http.MethodPost, "/workflow/edges", web.AddEdgeRequest{
		SourceNodeID: "notify",
		TargetNodeID: "approval",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[web.CreatedResponse](t, body)
	require.NotEmpty(t, created.ID)

	status, _ = env.do(t, http.MethodPost, "/workflow/edges", web.AddEdgeRequest{
		ID:           created.ID,
		SourceNodeID: "notify",
		TargetNodeID: "approval",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPost, "/workflow/edges", web.AddEdgeRequest{
		SourceNodeID: "notify",
		TargetNodeID: "ghost",
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/workflow/edges", web.AddEdgeRequest{
		SourceNodeID: "notify",
		TargetNodeID: "approval",
		Branch:       "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPatch, "/workflow/edges/"+created.ID, web.UpdateEdgeRequest{Branch: stringPtr("deny")})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.BranchDeny, env.store.Document().EdgeByID(created.ID).Attributes.Branch)

	status, _ = env.do(t, http.MethodPatch, "/workflow/edges/"+created.ID, web.UpdateEdgeRequest{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodDelete, "/workflow/edges/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.store.Document().EdgeByID(created.ID))

	status, body = env.do(t, http.MethodDelete, "/workflow/edges/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "edge_not_found")
}

func TestAPIHandlers_ClearEdgeBranch(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	require.Equal(t, models.BranchApprove, env.store.Document().EdgeByID("e-approve").Attributes.Branch)

	status, body := env.do(t, http.MethodPatch, "/workflow/edges/e-approve", `{"branch": ""}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, env.store.Document().EdgeByID("e-approve").Attributes.Branch)

	status, _ = env.do(t, http.MethodPatch, "/workflow/edges/e-approve", `{"branch": "later"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_Selection(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	status, body := env.do(t, http.MethodPut, "/workflow/selection", web.SelectRequest{NodeID: "approval"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, graph.Selection{NodeID: "approval"}, env.store.Selection())

	status, _ = env.do(t, http.MethodPut, "/workflow/selection", web.SelectRequest{NodeID: "approval", EdgeID: "e-start"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPut, "/workflow/selection", web.SelectRequest{EdgeID: "ghost"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPut, "/workflow/selection", web.SelectRequest{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, graph.Selection{}, env.store.Selection())
}

func TestAPIHandlers_Validation(t *testing.T) {
	env := setupTestApp(t, nil)

	status, body := env.do(t, http.MethodGet, "/workflow/validation", nil)
	require.Equal(t, http.StatusOK, status)

	result := decode[validation.Result](t, body)
	assert.False(t, result.Publishable)
	require.NotEmpty(t, result.Violations)

	env.loadPublishable(t)

	status, body = env.do(t, http.MethodGet, "/workflow/validation", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[validation.Result](t, body).Publishable)
}

func TestAPIHandlers_ExportImport(t *testing.T) {
	source := setupTestApp(t, nil)
	source.loadPublishable(t)

	status, exported := source.do(t, http.MethodGet, "/workflow/export", nil)
	require.Equal(t, http.StatusOK, status)

	target := setupTestApp(t, nil)

	status, body := target.do(t, http.MethodPost, "/workflow/import", string(exported))
	require.Equal(t, http.StatusOK, status, string(body))

	assert.Equal(t, source.store.Document().Nodes, target.store.Document().Nodes)
	assert.Equal(t, source.store.Document().Edges, target.store.Document().Edges)

	status, body = target.do(t, http.MethodPost, "/workflow/import", `{"nodes": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "validation_error")
	assert.Equal(t, source.store.Document().Nodes, target.store.Document().Nodes)
}

func TestAPIHandlers_PublishNotPublishable(t *testing.T) {
	env := setupTestApp(t, nil)

	status, body := env.do(t, http.MethodPost, "/workflow/publish", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	problem := decode[map[string]any](t, body)
	assert.Equal(t, "not_publishable", problem["type"])
	assert.EqualValues(t, http.StatusUnprocessableEntity, problem["status"])
	assert.Equal(t, "/workflow/publish", problem["instance"])
	assert.NotEmpty(t, problem["title"])
	assert.NotEmpty(t, problem["violations"])

	typed := decode[struct {
		Violations []validation.Violation `json:"violations"`
	}](t, body)
	require.NotEmpty(t, typed.Violations)

	for _, violation := range typed.Violations {
		assert.NotEmpty(t, violation.Code)
		assert.NotEmpty(t, violation.Message)
	}

	env.engine.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAPIHandlers_Publish(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	env.engine.On("Publish", mock.Anything, mock.Anything).Return(&publisher.Receipt{WorkflowID: "wf-42"}, nil).Once()

	status, body := env.do(t, http.MethodPost, "/workflow/publish", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "wf-42", decode[web.PublishResponse](t, body).WorkflowID)

	status, body = env.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, status)

	current := decode[map[string]any](t, body)
	assert.Equal(t, "wf-42", current["workflowId"])
	assert.Equal(t, true, current["subscribed"])
	assert.Equal(t, false, current["panelDismissed"])
}

func TestAPIHandlers_PublishEngineFailure(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	env.engine.On("Publish", mock.Anything, mock.Anything).
		Return(nil, &publisher.EngineError{StatusCode: 500, Message: "boom", Err: publisher.ErrPublishRejected}).Once()

	status, body := env.do(t, http.MethodPost, "/workflow/publish", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, string(body), "engine_error")
}

func TestAPIHandlers_StatusPanel(t *testing.T) {
	env := setupTestApp(t, nil)

	status, _ := env.do(t, http.MethodPost, "/status/dismiss", nil)
	require.Equal(t, http.StatusOK, status)

	dismissed, err := env.persistence.PanelDismissed(t.Context())
	require.NoError(t, err)
	assert.True(t, dismissed)

	status, _ = env.do(t, http.MethodPost, "/status/show", nil)
	require.Equal(t, http.StatusOK, status)

	dismissed, err = env.persistence.PanelDismissed(t.Context())
	require.NoError(t, err)
	assert.False(t, dismissed)
}

func TestAPIHandlers_Reset(t *testing.T) {
	env := setupTestApp(t, nil)
	env.loadPublishable(t)

	status, body := env.do(t, http.MethodPost, "/workflow/reset", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	assert.Len(t, env.store.Document().Nodes, 1)
}

func TestAPIHandlers_PersistWarning(t *testing.T) {
	cache := &mocks.MockPersistence{}
	cache.On("LoadDocument", mock.Anything).Return(models.NewDocument(testutil.FixedTime), nil)
	cache.On("SaveDocument", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	env := setupTestApp(t, cache)

	status, body := env.do(t, http.MethodPost, "/workflow/nodes", web.AddNodeRequest{Kind: "end"})
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[web.CreatedResponse](t, body)
	assert.Contains(t, created.Warning, "disk full")
	assert.NotNil(t, env.store.Document().NodeByID(created.ID))
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	env := setupTestApp(t, nil)

	status, body := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
}
