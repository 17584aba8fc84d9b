package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pod-service/internal/models"
	"pod-service/internal/repositories"
)

type PodRepositoryMock struct {
	mock.Mock
}

func (m *PodRepositoryMock) GetPod(ctx context.Context, podID string) (models.Pod, error) {
	args := m.Called(ctx, podID)
	var pod models.Pod
	if val := args.Get(0); val != nil {
		pod = val.(models.Pod)
	}
	return pod, args.Error(1)
}

func (m *PodRepositoryMock) IsMember(ctx context.Context, podID string, userID string) (bool, error) {
	args := m.Called(ctx, podID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *PodRepositoryMock) ListPodsForUser(ctx context.Context, userID string) ([]models.Pod, error) {
	args := m.Called(ctx, userID)
	var pods []models.Pod
	if val := args.Get(0); val != nil {
		pods = val.([]models.Pod)
	}
	return pods, args.Error(1)
}

func (m *PodRepositoryMock) ListCandidatePods(ctx context.Context, userID string, limit int) ([]models.Pod, error) {
	args := m.Called(ctx, userID, limit)
	var pods []models.Pod
	if val := args.Get(0); val != nil {
		pods = val.([]models.Pod)
	}
	return pods, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.NewMessage) (models.ChatMessage, error) {
	args := m.Called(ctx, msg)
	var out models.ChatMessage
	if val := args.Get(0); val != nil {
		out = val.(models.ChatMessage)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int64) (models.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	var out models.ChatMessage
	if val := args.Get(0); val != nil {
		out = val.(models.ChatMessage)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecentMessages(ctx context.Context, podID string, limit int, beforeID int64) ([]models.ChatMessage, error) {
	args := m.Called(ctx, podID, limit, beforeID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	args := m.Called(ctx, userID)
	var profile models.UserProfile
	if val := args.Get(0); val != nil {
		profile = val.(models.UserProfile)
	}
	return profile, args.Error(1)
}

var _ repositories.PodRepository = (*PodRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
