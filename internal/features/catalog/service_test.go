package catalog_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/config"
	"serotonyl.ru/ethical-karma/internal/db/memory"
	"serotonyl.ru/ethical-karma/internal/features/catalog"
)

func testConfig() *config.Config {
	return &config.Config{StorageTimeout: time.Second, CatalogCacheTTL: time.Minute}
}

// mapCache — кеш в памяти, считает попадания по спискам товаров.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok && strings.HasPrefix(key, "catalog:products:") {
		c.hits++
	}
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(string(c.data[key]), 10, 64)
	n++
	c.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// slowSetCache задерживает первую запись списка, пока не закрыт release.
type slowSetCache struct {
	*mapCache
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *slowSetCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if strings.HasPrefix(key, "catalog:products:") {
		c.once.Do(func() {
			close(c.entered)
			<-c.release
		})
	}
	return c.mapCache.Set(ctx, key, value, ttl)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCache) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func validRequest(name, category string) catalog.CreateRequest {
	return catalog.CreateRequest{
		Name:                name,
		Price:               decimal.RequireFromString("9.99"),
		Category:            category,
		EthicalBadges:       []catalog.EthicalBadge{{Category: catalog.CategoryFairTrade, Score: 80, Description: "Fair"}},
		KarmaPoints:         40,
		SustainabilityScore: 70,
		CarbonFootprint:     catalog.FootprintMedium,
	}
}

func TestSeedIfEmpty_Idempotent(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())
	ctx := context.Background()

	n, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = svc.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 8)
	assert.Equal(t, "Organic Pineapple Juice", all[0].Name)
}

func TestSeedIfEmpty_ConcurrentFirstCallers(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SeedIfEmpty(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestSeedIfEmpty_SkipsNonEmptyCatalog(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())
	ctx := context.Background()

	_, err := svc.Create(ctx, validRequest("Own product", "Misc"))
	require.NoError(t, err)

	n, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListByCategory(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())
	ctx := context.Background()
	_, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)

	got, err := svc.ListByCategory(ctx, "Home & Kitchen")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, "Home & Kitchen", p.Category)
	}

	// Тот же относительный порядок, что и в полном списке.
	var want []string
	for _, p := range all {
		if p.Category == "Home & Kitchen" {
			want = append(want, p.ID)
		}
	}
	assert.Equal(t, want, []string{got[0].ID, got[1].ID})

	none, err := svc.ListByCategory(ctx, "home & kitchen")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())

	_, err := svc.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, common.ErrProductNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreate_AssignsIDAndDefaults(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())
	ctx := context.Background()

	p, err := svc.Create(ctx, validRequest("Bamboo brush", "Personal Care"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.NotNil(t, p.Alternatives)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Price.Equal(got.Price))
}

func TestCreate_Validation(t *testing.T) {
	negative := decimal.RequireFromString("-1")
	fractional := decimal.RequireFromString("4.999")
	huge := decimal.RequireFromString("10000000000")

	tests := []struct {
		name   string
		mutate func(r *catalog.CreateRequest)
		field  string
	}{
		{"empty name", func(r *catalog.CreateRequest) { r.Name = " " }, "name"},
		{"empty category", func(r *catalog.CreateRequest) { r.Category = "" }, "category"},
		{"negative price", func(r *catalog.CreateRequest) { r.Price = negative }, "price"},
		{"negative original price", func(r *catalog.CreateRequest) { r.OriginalPrice = &negative }, "original_price"},
		{"price with three decimals", func(r *catalog.CreateRequest) { r.Price = fractional }, "price"},
		{"price too large", func(r *catalog.CreateRequest) { r.Price = huge }, "price"},
		{"original price with three decimals", func(r *catalog.CreateRequest) { r.OriginalPrice = &fractional }, "original_price"},
		{"original price too large", func(r *catalog.CreateRequest) { r.OriginalPrice = &huge }, "original_price"},
		{"negative karma", func(r *catalog.CreateRequest) { r.KarmaPoints = -5 }, "karma_points"},
		{"score above 100", func(r *catalog.CreateRequest) { r.SustainabilityScore = 101 }, "sustainability_score"},
		{"unknown footprint", func(r *catalog.CreateRequest) { r.CarbonFootprint = "Tiny" }, "carbon_footprint"},
		{"unknown badge category", func(r *catalog.CreateRequest) { r.EthicalBadges[0].Category = "vegan" }, "ethical_badges[0].category"},
		{"badge score below 0", func(r *catalog.CreateRequest) { r.EthicalBadges[0].Score = -1 }, "ethical_badges[0].score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())
			req := validRequest("Thing", "Misc")
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			require.ErrorIs(t, err, common.ErrValidation)

			var e *common.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.field, e.Field)

			all, err := svc.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCreate_BoundaryScoresAccepted(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), nil, testConfig())
	req := validRequest("Edge", "Misc")
	req.SustainabilityScore = 100
	req.EthicalBadges[0].Score = 0
	req.KarmaPoints = 0
	req.Price = decimal.Zero
	top := decimal.RequireFromString("9999999999.99")
	req.OriginalPrice = &top

	_, err := svc.Create(context.Background(), req)
	assert.NoError(t, err)

	req.Price = decimal.RequireFromString("4.990")
	_, err = svc.Create(context.Background(), req)
	assert.NoError(t, err, "trailing zeros are not extra precision")
}

func TestCache_ReadThroughAndInvalidation(t *testing.T) {
	cache := newMapCache()
	svc := catalog.NewService(memory.New().Catalog(), cache, testConfig())
	ctx := context.Background()

	_, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Len(t, second, len(first))
	assert.True(t, first[0].Price.Equal(second[0].Price))

	_, err = svc.Create(ctx, validRequest("Fresh", "Beverages"))
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9)

	bev, err := svc.ListByCategory(ctx, "Beverages")
	require.NoError(t, err)
	assert.Len(t, bev, 3)
}

func TestCache_FailureFallsBackToStore(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), brokenCache{}, testConfig())
	ctx := context.Background()

	_, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestCache_LateListWriteDoesNotHideCreate(t *testing.T) {
	cache := &slowSetCache{
		mapCache: newMapCache(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	svc := catalog.NewService(memory.New().Catalog(), cache, testConfig())
	ctx := context.Background()

	_, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		stale, err := svc.List(ctx)
		assert.NoError(t, err)
		assert.Len(t, stale, 8)
	}()

	// List уже прочитал хранилище и застрял в Set.
	<-cache.entered
	created, err := svc.Create(ctx, validRequest("Late", "Misc"))
	require.NoError(t, err)
	close(cache.release)
	<-done

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 9)
	assert.Equal(t, created.ID, all[8].ID)

	misc, err := svc.ListByCategory(ctx, "Misc")
	require.NoError(t, err)
	require.Len(t, misc, 1)
	assert.Equal(t, created.ID, misc[0].ID)
}

func TestCache_FailedGenerationBumpSkipsListCache(t *testing.T) {
	svc := catalog.NewService(memory.New().Catalog(), brokenCache{}, testConfig())
	ctx := context.Background()

	_, err := svc.Create(ctx, validRequest("One", "Misc"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, validRequest("Two", "Misc"))
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
