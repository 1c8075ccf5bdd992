package mocks

import (
	"context"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

var _ persistence.Persistence = (*MockPersistence)(nil)

func (m *MockPersistence) LoadDocument(ctx context.Context) (*models.WorkflowDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowDocument), args.Error(1)
}

func (m *MockPersistence) SaveDocument(ctx context.Context, doc *models.WorkflowDocument) error {
	args := m.Called(ctx, doc)

	return args.Error(0)
}

func (m *MockPersistence) LoadEventLog(ctx context.Context, workflowID string) ([]models.WorkflowEvent, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.WorkflowEvent), args.Error(1)
}

func (m *MockPersistence) SaveEventLog(ctx context.Context, workflowID string, events []models.WorkflowEvent) error {
	args := m.Called(ctx, workflowID, events)

	return args.Error(0)
}

func (m *MockPersistence) DeleteEventLog(ctx context.Context, workflowID string) error {
	args := m.Called(ctx, workflowID)

	return args.Error(0)
}

func (m *MockPersistence) ActiveWorkflow(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

func (m *MockPersistence) SetActiveWorkflow(ctx context.Context, workflowID string) error {
	args := m.Called(ctx, workflowID)

	return args.Error(0)
}

func (m *MockPersistence) ClearActiveWorkflow(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) PanelDismissed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)

	return args.Bool(0), args.Error(1)
}

func (m *MockPersistence) SetPanelDismissed(ctx context.Context, dismissed bool) error {
	args := m.Called(ctx, dismissed)

	return args.Error(0)
}

func (m *MockPersistence) Reset(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
