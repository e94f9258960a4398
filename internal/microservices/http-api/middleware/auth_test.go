package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*service.Identity, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Identity), args.Error(1)
}

type MockPrincipalService struct {
	mock.Mock
}

func (m *MockPrincipalService) Save(ctx context.Context, email, name, photo string) (*models.Principal, bool, error) {
	args := m.Called(email, name, photo)
	return nil, false, args.Error(2)
}

func (m *MockPrincipalService) Get(ctx context.Context, email string) (*models.Principal, error) {
	args := m.Called(email)
	return nil, args.Error(1)
}

func (m *MockPrincipalService) List(ctx context.Context, requesterEmail string) ([]models.Principal, error) {
	args := m.Called(requesterEmail)
	return nil, args.Error(1)
}

func (m *MockPrincipalService) SetRole(ctx context.Context, requesterEmail, targetEmail, role string) (*models.Principal, error) {
	args := m.Called(requesterEmail, targetEmail, role)
	return nil, args.Error(1)
}

func (m *MockPrincipalService) IsAdmin(ctx context.Context, email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}

func setupRouter(verifier service.IdentityVerifier, principals service.PrincipalService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(verifier))
	router.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(ContextEmail)})
	})
	router.GET("/admin", RequireAdmin(principals), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	verifier := new(MockVerifier)
	router := setupRouter(verifier, new(MockPrincipalService))

	verifier.On("Verify", "good").Return(&service.Identity{Email: "u1@x"}, nil)
	verifier.On("Verify", "bad").Return(nil, service.ErrUnauthorized)

	w := doRequest(router, "/me", "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"u1@x"}`, w.Body.String())

	w = doRequest(router, "/me", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authorization header")

	w = doRequest(router, "/me", "Token good")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	verifier := new(MockVerifier)
	principals := new(MockPrincipalService)
	router := setupRouter(verifier, principals)

	verifier.On("Verify", "admin").Return(&service.Identity{Email: "admin@x"}, nil)
	verifier.On("Verify", "user").Return(&service.Identity{Email: "u1@x"}, nil)
	verifier.On("Verify", "broken").Return(&service.Identity{Email: "broken@x"}, nil)
	principals.On("IsAdmin", "admin@x").Return(true, nil)
	principals.On("IsAdmin", "u1@x").Return(false, nil)
	principals.On("IsAdmin", "broken@x").Return(false, errors.New("db down"))

	assert.Equal(t, http.StatusNoContent, doRequest(router, "/admin", "Bearer admin").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(router, "/admin", "Bearer user").Code)
	assert.Equal(t, http.StatusInternalServerError, doRequest(router, "/admin", "Bearer broken").Code)
}
