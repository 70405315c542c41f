package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/navarrete-shop/backend/internal/payment"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const tokenTTL = 24 * time.Hour

type Service struct {
	repo    Repository
	gateway payment.Gateway
	secret  []byte
	log     *zap.Logger
}

func NewService(repo Repository, gateway payment.Gateway, secret []byte, log *zap.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, secret: secret, log: log}
}

// Register creates the user and makes sure a gateway customer exists for it,
// so checkout can attach payment intents to the customer later. A gateway
// failure here is not fatal: the customer gets created lazily on first use.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (*User, error) {
	if username == "" || email == "" || password == "" {
		return nil, errors.New("username, email and password are required")
	}
	if role == "" {
		role = RoleCustomer
	}
	if !ValidRole(role) {
		return nil, errors.New("unknown role")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}
	if role == RoleCustomer && s.gateway != nil {
		custID, gerr := s.gateway.CreateOrRetrieveCustomer(ctx, email)
		if gerr != nil {
			s.log.Warn("gateway customer not created at registration", zap.String("email", email), zap.Error(gerr))
		} else {
			u.StripeCustomerID = custID
		}
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials and returns a signed token plus the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := SignToken(s.secret, u.ID, u.Role, tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// EnsureStripeCustomer returns the user's gateway customer id, creating and
// persisting one if registration could not.
func (s *Service) EnsureStripeCustomer(ctx context.Context, u *User) (string, error) {
	if u.StripeCustomerID != "" {
		return u.StripeCustomerID, nil
	}
	custID, err := s.gateway.CreateOrRetrieveCustomer(ctx, u.Email)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetStripeCustomer(ctx, u.ID, custID); err != nil {
		return "", err
	}
	u.StripeCustomerID = custID
	return custID, nil
}
