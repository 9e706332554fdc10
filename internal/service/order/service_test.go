package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/cache"
	"github.com/zerobertocosta/Karibu/internal/entity"
	menurepo "github.com/zerobertocosta/Karibu/internal/repository/menu"
	repo "github.com/zerobertocosta/Karibu/internal/repository/order"
	"github.com/zerobertocosta/Karibu/internal/tenant"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

type mockStore struct {
	openFn           func(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error)
	getFn            func(ctx context.Context, establishmentID, id int64) (*entity.Order, error)
	openByTableFn    func(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error)
	addLineFn        func(ctx context.Context, line *entity.OrderLine) (*entity.OrderLine, error)
	updateQuantityFn func(ctx context.Context, establishmentID, lineID int64, quantity int) (*entity.OrderLine, error)
	removeLineFn     func(ctx context.Context, establishmentID, lineID int64) error
	recomputeFn      func(ctx context.Context, establishmentID, orderID int64) (int64, bool, error)
	closeFn          func(ctx context.Context, establishmentID, orderID int64, tipCents *int64, notes string) (*entity.Order, error)
}

func (m *mockStore) Open(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error) {
	return m.openFn(ctx, establishmentID, tableID)
}

func (m *mockStore) GetByID(ctx context.Context, establishmentID, id int64) (*entity.Order, error) {
	return m.getFn(ctx, establishmentID, id)
}

func (m *mockStore) OpenByTable(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error) {
	return m.openByTableFn(ctx, establishmentID, tableID)
}

func (m *mockStore) AddLine(ctx context.Context, line *entity.OrderLine) (*entity.OrderLine, error) {
	return m.addLineFn(ctx, line)
}

func (m *mockStore) UpdateLineQuantity(ctx context.Context, establishmentID, lineID int64, quantity int) (*entity.OrderLine, error) {
	return m.updateQuantityFn(ctx, establishmentID, lineID, quantity)
}

func (m *mockStore) RemoveLine(ctx context.Context, establishmentID, lineID int64) error {
	return m.removeLineFn(ctx, establishmentID, lineID)
}

func (m *mockStore) RecomputeTotal(ctx context.Context, establishmentID, orderID int64) (int64, bool, error) {
	return m.recomputeFn(ctx, establishmentID, orderID)
}

func (m *mockStore) Close(ctx context.Context, establishmentID, orderID int64, tipCents *int64, notes string) (*entity.Order, error) {
	return m.closeFn(ctx, establishmentID, orderID, tipCents, notes)
}

type mockMenu struct {
	getItemFn func(ctx context.Context, establishmentID, id int64) (*entity.MenuItem, error)
	calls     int
}

func (m *mockMenu) GetItem(ctx context.Context, establishmentID, id int64) (*entity.MenuItem, error) {
	m.calls++
	return m.getItemFn(ctx, establishmentID, id)
}

// memCache is a map-backed cache.Store for exercising the menu lookup path.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return value, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func staffActor() tenant.Context {
	return tenant.Context{EstablishmentID: 7, Role: tenant.RoleStaff}
}

func margherita() *entity.MenuItem {
	return &entity.MenuItem{ID: 4, EstablishmentID: 7, Name: "Margherita", PriceCents: 2500, Available: true}
}

func TestAddLineCapturesMenuPrice(t *testing.T) {
	menu := &mockMenu{
		getItemFn: func(_ context.Context, establishmentID, id int64) (*entity.MenuItem, error) {
			assert.Equal(t, int64(7), establishmentID)
			assert.Equal(t, int64(4), id)
			return margherita(), nil
		},
	}
	store := &mockStore{
		addLineFn: func(_ context.Context, line *entity.OrderLine) (*entity.OrderLine, error) {
			assert.Equal(t, int64(7), line.EstablishmentID)
			assert.Equal(t, int64(11), line.OrderID)
			assert.Equal(t, "Margherita", line.MenuItemName)
			assert.Equal(t, int64(2500), line.UnitPriceCents)
			assert.Equal(t, 2, line.Quantity)
			line.ID = 1
			line.SubtotalCents = line.UnitPriceCents * int64(line.Quantity)
			return line, nil
		},
	}
	svc := newService(store, menu, nil, 0, zap.NewNop())

	line, err := svc.AddLine(context.Background(), staffActor(), 11, 4, 2, "extra basil")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), line.SubtotalCents)
}

func TestAddLineUsesCachedMenuItem(t *testing.T) {
	menu := &mockMenu{
		getItemFn: func(context.Context, int64, int64) (*entity.MenuItem, error) {
			return margherita(), nil
		},
	}
	store := &mockStore{
		addLineFn: func(_ context.Context, line *entity.OrderLine) (*entity.OrderLine, error) {
			return line, nil
		},
	}
	svc := newService(store, menu, newMemCache(), time.Minute, zap.NewNop())

	_, err := svc.AddLine(context.Background(), staffActor(), 11, 4, 1, "")
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), staffActor(), 11, 4, 1, "")
	require.NoError(t, err)

	assert.Equal(t, 1, menu.calls, "second lookup should hit the cache")
}

func TestAddLineUnavailableItem(t *testing.T) {
	item := margherita()
	item.Available = false
	menu := &mockMenu{
		getItemFn: func(context.Context, int64, int64) (*entity.MenuItem, error) {
			return item, nil
		},
	}
	svc := newService(&mockStore{}, menu, nil, 0, zap.NewNop())

	_, err := svc.AddLine(context.Background(), staffActor(), 11, 4, 1, "")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestAddLineUnknownItem(t *testing.T) {
	menu := &mockMenu{
		getItemFn: func(context.Context, int64, int64) (*entity.MenuItem, error) {
			return nil, menurepo.ErrNotFound
		},
	}
	svc := newService(&mockStore{}, menu, nil, 0, zap.NewNop())

	_, err := svc.AddLine(context.Background(), staffActor(), 11, 4, 1, "")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestAddLineRejectsBadQuantity(t *testing.T) {
	svc := newService(&mockStore{}, &mockMenu{}, nil, 0, zap.NewNop())

	for _, quantity := range []int{0, -1} {
		_, err := svc.AddLine(context.Background(), staffActor(), 11, 4, quantity, "")
		require.Error(t, err)
		assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
	}
}

func TestOpenMapsConflict(t *testing.T) {
	store := &mockStore{
		openFn: func(context.Context, int64, int64) (*entity.Order, error) {
			return nil, repo.ErrOpenOrderExists
		},
	}
	svc := newService(store, &mockMenu{}, nil, 0, zap.NewNop())

	_, err := svc.Open(context.Background(), staffActor(), 3)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindConflict, errorbank.From(err).Kind())
}

func TestMutationsOnSettledOrder(t *testing.T) {
	store := &mockStore{
		updateQuantityFn: func(context.Context, int64, int64, int) (*entity.OrderLine, error) {
			return nil, repo.ErrOrderNotMutable
		},
		removeLineFn: func(context.Context, int64, int64) error {
			return repo.ErrLineDispatched
		},
	}
	svc := newService(store, &mockMenu{}, nil, 0, zap.NewNop())

	_, err := svc.UpdateLineQuantity(context.Background(), staffActor(), 1, 3)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindInvalidState, errorbank.From(err).Kind())

	err = svc.RemoveLine(context.Background(), staffActor(), 1)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindInvalidState, errorbank.From(err).Kind())
}

func TestCloseValidatesTip(t *testing.T) {
	svc := newService(&mockStore{}, &mockMenu{}, nil, 0, zap.NewNop())

	tip := int64(-100)
	_, err := svc.Close(context.Background(), staffActor(), 11, &tip, "")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestCloseWithOutstandingTickets(t *testing.T) {
	store := &mockStore{
		closeFn: func(context.Context, int64, int64, *int64, string) (*entity.Order, error) {
			return nil, repo.ErrTicketsOutstanding
		},
	}
	svc := newService(store, &mockMenu{}, nil, 0, zap.NewNop())

	_, err := svc.Close(context.Background(), staffActor(), 11, nil, "")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindInvalidState, errorbank.From(err).Kind())
}

func TestRecomputeTotalPassesThrough(t *testing.T) {
	calls := 0
	store := &mockStore{
		recomputeFn: func(_ context.Context, establishmentID, orderID int64) (int64, bool, error) {
			calls++
			assert.Equal(t, int64(7), establishmentID)
			assert.Equal(t, int64(11), orderID)
			// only the first pass finds a stale total
			return 5000, calls == 1, nil
		},
	}
	svc := newService(store, &mockMenu{}, nil, 0, zap.NewNop())

	total, changed, err := svc.RecomputeTotal(context.Background(), staffActor(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), total)
	assert.True(t, changed)

	total, changed, err = svc.RecomputeTotal(context.Background(), staffActor(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), total)
	assert.False(t, changed)
}

func TestOpenByTableNotFoundMessage(t *testing.T) {
	store := &mockStore{
		openByTableFn: func(context.Context, int64, int64) (*entity.Order, error) {
			return nil, repo.ErrNotFound
		},
	}
	svc := newService(store, &mockMenu{}, nil, 0, zap.NewNop())

	_, err := svc.OpenByTable(context.Background(), staffActor(), 3)
	require.Error(t, err)
	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
	assert.Equal(t, "no open order for this table", appErr.Message())
}

func TestUnknownStoreErrorIsTransient(t *testing.T) {
	boom := errors.New("connection reset")
	store := &mockStore{
		getFn: func(context.Context, int64, int64) (*entity.Order, error) {
			return nil, boom
		},
	}
	svc := newService(store, &mockMenu{}, nil, 0, zap.NewNop())

	_, err := svc.Get(context.Background(), staffActor(), 11)
	require.Error(t, err)
	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindTransient, appErr.Kind())
	assert.True(t, errors.Is(err, boom))
}
