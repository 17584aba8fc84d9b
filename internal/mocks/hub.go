package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pod-service/internal/models"
)

// HubMock stands in for the websocket hub in handler tests.
type HubMock struct {
	mock.Mock
}

func (m *HubMock) BroadcastMessage(ctx context.Context, msg models.ChatMessage) int {
	args := m.Called(ctx, msg)
	return args.Int(0)
}

func (m *HubMock) OnlineUsers(podID string) []string {
	args := m.Called(podID)
	var users []string
	if val := args.Get(0); val != nil {
		users = val.([]string)
	}
	return users
}

func (m *HubMock) OnlineCount(podID string) int {
	args := m.Called(podID)
	return args.Int(0)
}

type RecommenderMock struct {
	mock.Mock
}

func (m *RecommenderMock) RecommendPods(ctx context.Context, userID string, limit int) ([]models.PodRecommendation, error) {
	args := m.Called(ctx, userID, limit)
	var recs []models.PodRecommendation
	if val := args.Get(0); val != nil {
		recs = val.([]models.PodRecommendation)
	}
	return recs, args.Error(1)
}

func (m *RecommenderMock) MatchPod(ctx context.Context, userID, podID string) (models.PodMatch, error) {
	args := m.Called(ctx, userID, podID)
	var match models.PodMatch
	if val := args.Get(0); val != nil {
		match = val.(models.PodMatch)
	}
	return match, args.Error(1)
}
