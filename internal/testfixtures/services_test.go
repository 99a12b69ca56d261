package testfixtures

import (
	"context"
	"testing"

	"github.com/example/hall-booking/internal/application"
)

type capturingAccountRepo struct {
	created application.User
	hash    string
}

func (c *capturingAccountRepo) CreateUser(ctx context.Context, user application.User, passwordHash string) error {
	c.created = user
	c.hash = passwordHash
	return nil
}

func (c *capturingAccountRepo) UpdateUser(ctx context.Context, user application.User) error {
	return nil
}

func (c *capturingAccountRepo) GetUser(ctx context.Context, id string) (application.User, error) {
	return application.User{}, application.ErrNotFound
}

func (c *capturingAccountRepo) ListUsers(ctx context.Context) ([]application.User, error) {
	return nil, nil
}

func TestServiceFactoryNewUserService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingAccountRepo{}

	svc := factory.NewUserService(UserServiceDeps{
		Accounts: repo,
		Hash:     func(password string) (string, error) { return "hashed:" + password, nil },
	})
	principal := application.Principal{UserID: "manager-1", Role: application.RoleManager}
	input := application.UserInput{
		Email:    "customer@example.com",
		Name:     "Customer",
		Role:     application.RoleCustomer,
		Password: "correct horse",
	}

	user, err := svc.CreateUser(context.Background(), application.CreateUserParams{Principal: principal, Input: input})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if user.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", user.ID)
	}
	if repo.created.ID != user.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if repo.hash != "hashed:correct horse" {
		t.Fatalf("repository received unexpected hash: %q", repo.hash)
	}
	if !user.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), user.CreatedAt)
	}
}
