package service

import (
	"context"

	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/mock"
)

// MockPrincipalRepository mocks the PrincipalRepository interface
type MockPrincipalRepository struct {
	mock.Mock
}

func (m *MockPrincipalRepository) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

func (m *MockPrincipalRepository) Create(ctx context.Context, principal *models.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

func (m *MockPrincipalRepository) UpdateRole(ctx context.Context, email, role string) error {
	args := m.Called(ctx, email, role)
	return args.Error(0)
}

func (m *MockPrincipalRepository) List(ctx context.Context) ([]models.Principal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Principal), args.Error(1)
}

// MockMessageStore mocks the MessageStore interface
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Insert(ctx context.Context, message *models.ChatMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageStore) FindByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *MockMessageStore) Find(ctx context.Context, filter repository.MessageFilter) ([]models.ChatMessage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockMessageStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageStore) Participants(ctx context.Context, roomID string) ([]models.Participant, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

var (
	adminPrincipal = &models.Principal{Email: "admin@x", Name: "Ada", Role: models.RoleAdmin}
	userPrincipal  = &models.Principal{Email: "u1@x", Name: "Una", Role: models.RoleUser}
)
