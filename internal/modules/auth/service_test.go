package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/jwt"
	"venuebook/internal/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegister_Planner(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "ann@example.com" && u.Role == domain.RolePlanner && u.PasswordHash != "secret123"
	})).Return(nil)

	svc := NewService(repo, jwt.New("secret", time.Hour))
	res, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ann", Email: "  Ann@Example.com ", Password: "secret123", Role: "planner",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, domain.RolePlanner, res.User.Role)
	repo.AssertExpectations(t)
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewService(repo, jwt.New("secret", time.Hour))

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Eve", Email: "eve@example.com", Password: "secret123", Role: "admin",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrConflict)

	svc := NewService(repo, jwt.New("secret", time.Hour))
	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Bob", Email: "bob@example.com", Password: "secret123", Role: "venue_holder",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: 3, Email: "ann@example.com", PasswordHash: string(hash), Role: domain.RolePlanner}

	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "ann@example.com").Return(user, nil)
	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)

	jwtSvc := jwt.New("secret", time.Hour)
	svc := NewService(repo, jwtSvc)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "secret123"})
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "planner", claims.Role)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetCurrentUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, repository.ErrNotFound)
	repo.On("GetByID", mock.Anything, int64(10)).Return(nil, errors.New("db down"))

	svc := NewService(repo, jwt.New("secret", time.Hour))

	_, err := svc.GetCurrentUser(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetCurrentUser(context.Background(), 10)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
