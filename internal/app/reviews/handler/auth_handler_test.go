package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSignupService struct {
	mock.Mock
}

func (m *MockSignupService) SignUp(ctx context.Context, req *entity.SignUpRequest) (*entity.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuthResponse), args.Error(1)
}

func (m *MockSignupService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuthResponse), args.Error(1)
}

type MockUsernameService struct {
	mock.Mock
}

func (m *MockUsernameService) CheckAvailable(ctx context.Context, rawHandle string) (bool, error) {
	args := m.Called(ctx, rawHandle)
	return args.Bool(0), args.Error(1)
}

type authHandlerFixture struct {
	router   *gin.Engine
	signup   *MockSignupService
	username *MockUsernameService
}

func setupAuthRouter() *authHandlerFixture {
	gin.SetMode(gin.TestMode)

	f := &authHandlerFixture{
		signup:   new(MockSignupService),
		username: new(MockUsernameService),
	}
	h := NewAuthHandler(f.signup, f.username)

	router := gin.New()
	router.POST("/auth/signup", h.SignUp)
	router.POST("/auth/login", h.Login)
	router.GET("/auth/username/available", h.CheckUsername)

	f.router = router
	return f
}

func TestSignUp_Handler_Success(t *testing.T) {
	f := setupAuthRouter()

	resp := &entity.AuthResponse{
		AccessToken: "token",
		Member:      entity.MemberInfo{ID: "id-1", Username: "newuser", Email: "new@example.com"},
	}
	f.signup.On("SignUp", mock.Anything, mock.AnythingOfType("*entity.SignUpRequest")).Return(resp, nil)

	w := performJSON(f.router, http.MethodPost, "/auth/signup",
		entity.SignUpRequest{Username: "newuser", Email: "new@example.com", Password: "password123"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var got entity.AuthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "token", got.AccessToken)
	assert.Equal(t, "newuser", got.Member.Username)
}

func TestSignUp_Handler_UsernameTakenMapsTo409(t *testing.T) {
	f := setupAuthRouter()

	f.signup.On("SignUp", mock.Anything, mock.Anything).Return(nil, service.ErrUsernameTaken)

	w := performJSON(f.router, http.MethodPost, "/auth/signup",
		entity.SignUpRequest{Username: "taken", Email: "new@example.com", Password: "password123"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignUp_Handler_EmailExistsMapsTo409(t *testing.T) {
	f := setupAuthRouter()

	f.signup.On("SignUp", mock.Anything, mock.Anything).Return(nil, service.ErrEmailExists)

	w := performJSON(f.router, http.MethodPost, "/auth/signup",
		entity.SignUpRequest{Username: "newuser", Email: "taken@example.com", Password: "password123"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignUp_Handler_ShortUsernameRejectedByValidation(t *testing.T) {
	f := setupAuthRouter()

	w := performJSON(f.router, http.MethodPost, "/auth/signup",
		entity.SignUpRequest{Username: "ab", Email: "new@example.com", Password: "password123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.signup.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
}

func TestSignUp_Handler_WhitespaceUsernameRejectedByService(t *testing.T) {
	f := setupAuthRouter()

	// " ab " проходит min=3 на сырой строке, но после нормализации
	// сервис отвечает ErrUsernameTooShort
	f.signup.On("SignUp", mock.Anything, mock.Anything).Return(nil, service.ErrUsernameTooShort)

	w := performJSON(f.router, http.MethodPost, "/auth/signup",
		entity.SignUpRequest{Username: " ab ", Email: "new@example.com", Password: "password123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Handler_Success(t *testing.T) {
	f := setupAuthRouter()

	resp := &entity.AuthResponse{AccessToken: "token"}
	f.signup.On("Login", mock.Anything, mock.AnythingOfType("*entity.LoginRequest")).Return(resp, nil)

	w := performJSON(f.router, http.MethodPost, "/auth/login",
		entity.LoginRequest{Email: "user@example.com", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_Handler_InvalidCredentials(t *testing.T) {
	f := setupAuthRouter()

	f.signup.On("Login", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials)

	w := performJSON(f.router, http.MethodPost, "/auth/login",
		entity.LoginRequest{Email: "user@example.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckUsername_Handler_Available(t *testing.T) {
	f := setupAuthRouter()

	f.username.On("CheckAvailable", mock.Anything, "avi").Return(true, nil)

	w := performJSON(f.router, http.MethodGet, "/auth/username/available?handle=avi", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var got map[string]bool
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got["available"])
}

func TestCheckUsername_Handler_MissingHandle(t *testing.T) {
	f := setupAuthRouter()

	w := performJSON(f.router, http.MethodGet, "/auth/username/available", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.username.AssertNotCalled(t, "CheckAvailable", mock.Anything, mock.Anything)
}

func TestCheckUsername_Handler_TooShort(t *testing.T) {
	f := setupAuthRouter()

	f.username.On("CheckAvailable", mock.Anything, "ab").Return(false, service.ErrUsernameTooShort)

	w := performJSON(f.router, http.MethodGet, "/auth/username/available?handle=ab", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
