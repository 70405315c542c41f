package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Identity is the caller's cart identity: an authenticated user id, or the
// opaque session token a guest carries in a cookie. UserID wins when both are
// present.
type Identity struct {
	UserID       string
	SessionToken string
}

type Service struct {
	repo  Repository
	cache Cache // optional
	log   *zap.Logger
}

func NewService(repo Repository, cache Cache, log *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func (s *Service) identityKey(ident Identity) string {
	if ident.UserID != "" {
		return "user:" + ident.UserID
	}
	return ident.SessionToken
}

// Get returns the identity's cart, or an empty cart representation when none
// exists. It never creates a cart.
func (s *Service) Get(ctx context.Context, ident Identity) (*Cart, error) {
	key := s.identityKey(ident)
	if s.cache != nil && key != "" {
		if c, err := s.cache.Get(ctx, key); err == nil {
			return c, nil
		}
	}

	var (
		c   *Cart
		err error
	)
	switch {
	case ident.UserID != "":
		c, err = s.repo.GetByUser(ctx, ident.UserID)
	case ident.SessionToken != "":
		c, err = s.repo.GetByID(ctx, ident.SessionToken)
	default:
		return &Cart{Lines: []Line{}}, nil
	}
	if errors.Is(err, ErrNotFound) {
		return &Cart{Lines: []Line{}}, nil
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cerr := s.cache.Set(ctx, key, c); cerr != nil {
			s.log.Warn("cart cache set failed", zap.Error(cerr))
		}
	}
	return c, nil
}

// AddItem adds a product to the identity's cart, creating the cart on first
// use. The returned session token is non-empty only for anonymous identities
// and must be persisted by the caller (cookie). A line already present for the
// product gets its quantity incremented. Stock is deliberately not checked
// here; order creation validates it against the catalog.
func (s *Service) AddItem(ctx context.Context, ident Identity, productID string, qty int) (*Line, string, error) {
	if productID == "" || qty <= 0 {
		return nil, "", ErrInvalidQuantity
	}

	var (
		c      *Cart
		minted string
		err    error
	)
	switch {
	case ident.UserID != "":
		c, err = s.repo.UpsertForUser(ctx, ident.UserID)
	case ident.SessionToken != "":
		c, err = s.repo.GetByID(ctx, ident.SessionToken)
		if errors.Is(err, ErrNotFound) {
			// stale or forged token: mint a fresh guest cart
			c, minted, err = s.newGuestCart(ctx)
		}
	default:
		c, minted, err = s.newGuestCart(ctx)
	}
	if err != nil {
		return nil, "", err
	}

	line, err := s.repo.UpsertLine(ctx, c.ID, productID, qty)
	if err != nil {
		return nil, "", err
	}

	if s.cache != nil {
		if cerr := s.cache.Delete(ctx, s.identityKey(ident)); cerr != nil {
			s.log.Warn("cart cache invalidation failed", zap.Error(cerr))
		}
	}
	return line, minted, nil
}

func (s *Service) newGuestCart(ctx context.Context) (*Cart, string, error) {
	c := &Cart{ID: uuid.NewString()}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, "", err
	}
	return c, c.ID, nil
}
