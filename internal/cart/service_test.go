package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRepo struct {
	byID     map[string]*Cart
	byUser   map[string]*Cart
	creates  int
	upserts  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]*Cart{}, byUser: map[string]*Cart{}}
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*Cart, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	c, ok := f.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) Create(ctx context.Context, c *Cart) error {
	f.creates++
	cp := *c
	f.byID[c.ID] = &cp
	if c.UserID != "" {
		f.byUser[c.UserID] = &cp
	}
	return nil
}

func (f *fakeRepo) UpsertForUser(ctx context.Context, userID string) (*Cart, error) {
	if c, ok := f.byUser[userID]; ok {
		return c, nil
	}
	c := &Cart{ID: uuid.NewString(), UserID: userID}
	f.byID[c.ID] = c
	f.byUser[userID] = c
	return c, nil
}

func (f *fakeRepo) UpsertLine(ctx context.Context, cartID, productID string, qty int) (*Line, error) {
	f.upserts++
	c, ok := f.byID[cartID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += qty
			cp := c.Lines[i]
			return &cp, nil
		}
	}
	l := Line{ID: uuid.NewString(), CartID: cartID, ProductID: productID, Quantity: qty}
	c.Lines = append(c.Lines, l)
	return &l, nil
}

type countingCache struct {
	data    map[string]*Cart
	deletes int
}

func newCountingCache() *countingCache { return &countingCache{data: map[string]*Cart{}} }

func (c *countingCache) Get(ctx context.Context, key string) (*Cart, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, ErrCacheMiss
}

func (c *countingCache) Set(ctx context.Context, key string, v *Cart) error {
	c.data[key] = v
	return nil
}

func (c *countingCache) Delete(ctx context.Context, key string) error {
	c.deletes++
	delete(c.data, key)
	return nil
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, zaptest.NewLogger(t))
	ident := Identity{UserID: "u1"}

	_, minted, err := svc.AddItem(context.Background(), ident, "p1", 2)
	require.NoError(t, err)
	assert.Empty(t, minted, "authenticated identities never get a session token")

	line, _, err := svc.AddItem(context.Background(), ident, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity, "repeated adds increment, never duplicate")

	c, err := svc.Get(context.Background(), ident)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestAddItem_MintsGuestToken(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, zaptest.NewLogger(t))

	line, minted, err := svc.AddItem(context.Background(), Identity{}, "p1", 1)
	require.NoError(t, err)
	require.NotEmpty(t, minted)
	assert.Equal(t, minted, line.CartID, "the token is the guest cart id")

	// the returned token resolves the same cart later
	line2, minted2, err := svc.AddItem(context.Background(), Identity{SessionToken: minted}, "p1", 2)
	require.NoError(t, err)
	assert.Empty(t, minted2, "known token must not re-mint")
	assert.Equal(t, 3, line2.Quantity)
}

func TestAddItem_StaleTokenMintsFresh(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, zaptest.NewLogger(t))

	_, minted, err := svc.AddItem(context.Background(), Identity{SessionToken: "forged"}, "p1", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, minted)
	assert.NotEqual(t, "forged", minted)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, zaptest.NewLogger(t))

	for _, qty := range []int{0, -1} {
		_, _, err := svc.AddItem(context.Background(), Identity{UserID: "u1"}, "p1", qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	_, _, err := svc.AddItem(context.Background(), Identity{UserID: "u1"}, "", 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestGet_NeverCreates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, zaptest.NewLogger(t))

	c, err := svc.Get(context.Background(), Identity{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
	assert.Zero(t, repo.creates, "reading a cart must not create one")

	c, err = svc.Get(context.Background(), Identity{})
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
	assert.Zero(t, repo.creates)
}

func TestCache_ReadThroughAndInvalidation(t *testing.T) {
	repo := newFakeRepo()
	cache := newCountingCache()
	svc := NewService(repo, cache, zaptest.NewLogger(t))
	ident := Identity{UserID: "u1"}

	_, _, err := svc.AddItem(context.Background(), ident, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes, "mutations invalidate the snapshot")

	// first read populates the cache
	c, err := svc.Get(context.Background(), ident)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Contains(t, cache.data, "user:u1")

	// second read is served from the cache even if the repo is wiped
	repo.byUser = map[string]*Cart{}
	c, err = svc.Get(context.Background(), ident)
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}
