package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type AIClientMock struct {
	mock.Mock
}

func (m *AIClientMock) GenerateText(ctx context.Context, system string, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func (m *AIClientMock) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (string, error) {
	args := m.Called(ctx, system, user, schemaName, schema)
	return args.String(0), args.Error(1)
}
