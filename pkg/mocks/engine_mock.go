package mocks

import (
	"context"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/publisher"
	"github.com/stretchr/testify/mock"
)

// MockEngine is a mock of the execution engine publish call.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Publish(ctx context.Context, doc *models.WorkflowDocument) (*publisher.Receipt, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*publisher.Receipt), args.Error(1)
}
