package memory_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/db/memory"
	"serotonyl.ru/ethical-karma/internal/features/catalog"
	"serotonyl.ru/ethical-karma/internal/features/karma"
	"serotonyl.ru/ethical-karma/internal/features/status"
	"serotonyl.ru/ethical-karma/internal/features/users"
)

func product(name, category string) *catalog.Product {
	return &catalog.Product{
		ID:              common.NewID(),
		Name:            name,
		Price:           decimal.RequireFromString("1.50"),
		Category:        category,
		EthicalBadges:   []catalog.EthicalBadge{{Category: catalog.CategoryOrganic, Score: 90}},
		CarbonFootprint: catalog.FootprintLow,
		Alternatives:    []string{},
		CreatedAt:       common.Now(),
	}
}

func newUser(t *testing.T, s users.Store, email string) *users.User {
	t.Helper()
	u := &users.User{ID: common.NewID(), Email: email, Name: "Test", Purchases: []string{}, CreatedAt: common.Now()}
	require.NoError(t, s.Create(context.Background(), u))
	return u
}

func TestCatalog_SeedIfEmptyConcurrent(t *testing.T) {
	store := memory.New().Catalog()
	ctx := context.Background()

	seed := []*catalog.Product{product("a", "x"), product("b", "y"), product("c", "x")}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.SeedIfEmpty(ctx, seed)
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, len(seed), total)
	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestCatalog_ListByCategoryKeepsOrder(t *testing.T) {
	store := memory.New().Catalog()
	ctx := context.Background()

	for _, p := range []*catalog.Product{product("a", "x"), product("b", "y"), product("c", "x")} {
		require.NoError(t, store.Insert(ctx, p))
	}

	got, err := store.ListByCategory(ctx, "x")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)

	none, err := store.ListByCategory(ctx, "X")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	store := memory.New().Catalog()
	ctx := context.Background()

	p := product("a", "x")
	require.NoError(t, store.Insert(ctx, p))

	got, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	got.Name = "changed"
	got.EthicalBadges[0].Score = 1

	again, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Name)
	assert.Equal(t, 90, again.EthicalBadges[0].Score)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrProductNotFound)
}

func TestUsers_EmailUniqueUnderRace(t *testing.T) {
	store := memory.New().Users()
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Create(ctx, &users.User{ID: common.NewID(), Email: "same@example.com", Name: "X"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, common.ErrConflict):
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 19, conflict)
}

func TestUsers_EmailCaseSensitive(t *testing.T) {
	store := memory.New().Users()
	newUser(t, store, "a@example.com")
	newUser(t, store, "A@example.com")
}

func TestKarma_GrantUnknownUserLeavesJournalUntouched(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	_, err := m.Karma().Grant(ctx, &karma.Entry{ID: common.NewID(), UserID: "ghost", PointsEarned: 10})
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	for range m.Karma().Entries(ctx, "ghost") {
		t.Fatal("journal must stay empty")
	}
}

func TestKarma_GrantAndReconcile(t *testing.T) {
	m := memory.New()
	ctx := context.Background()
	u := newUser(t, m.Users(), "k@example.com")

	b, err := m.Karma().Grant(ctx, &karma.Entry{ID: common.NewID(), UserID: u.ID, PointsEarned: 30})
	require.NoError(t, err)
	assert.Equal(t, karma.Balance{KarmaPoints: 30, TotalImpactScore: 30}, b)

	// Запись в обход баланса — кэш расходится с журналом.
	require.NoError(t, m.Karma().Append(ctx, &karma.Entry{ID: common.NewID(), UserID: u.ID, PointsEarned: 5}))

	res, err := m.Karma().Reconcile(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, res.Repaired)
	assert.Equal(t, int64(35), res.JournalSum)
	assert.Equal(t, int64(30), res.Before.KarmaPoints)

	got, err := m.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(35), got.KarmaPoints)
	assert.Equal(t, int64(35), got.TotalImpactScore)

	res, err = m.Karma().Reconcile(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, res.Repaired)
}

func TestKarma_GrantOverflowLeavesBalance(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	for _, tc := range []struct {
		email string
		first int64
		next  int64
	}{
		{"up@example.com", math.MaxInt64, 1},
		{"down@example.com", math.MinInt64, -1},
	} {
		u := newUser(t, m.Users(), tc.email)
		_, err := m.Karma().Grant(ctx, &karma.Entry{ID: common.NewID(), UserID: u.ID, PointsEarned: tc.first})
		require.NoError(t, err)

		_, err = m.Karma().Grant(ctx, &karma.Entry{ID: common.NewID(), UserID: u.ID, PointsEarned: tc.next})
		assert.ErrorIs(t, err, common.ErrValidation, tc.email)

		got, err := m.Users().GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.first, got.KarmaPoints)
		assert.Equal(t, tc.first, got.TotalImpactScore)

		n := 0
		for range m.Karma().Entries(ctx, u.ID) {
			n++
		}
		assert.Equal(t, 1, n)
	}
}

func TestKarma_EntriesRestartable(t *testing.T) {
	m := memory.New()
	ctx := context.Background()
	u := newUser(t, m.Users(), "r@example.com")

	for _, p := range []int64{1, 2, 3} {
		_, err := m.Karma().Grant(ctx, &karma.Entry{ID: common.NewID(), UserID: u.ID, PointsEarned: p})
		require.NoError(t, err)
	}

	collect := func() []int64 {
		var out []int64
		for e, err := range m.Karma().Entries(ctx, u.ID) {
			require.NoError(t, err)
			out = append(out, e.PointsEarned)
		}
		return out
	}
	assert.Equal(t, []int64{1, 2, 3}, collect())
	assert.Equal(t, []int64{1, 2, 3}, collect())

	// Ранний выход из range не ломает последовательность.
	for e := range m.Karma().Entries(ctx, u.ID) {
		assert.Equal(t, int64(1), e.PointsEarned)
		break
	}
}

func TestStatus_ListLimit(t *testing.T) {
	store := memory.New().Status()
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.Insert(ctx, &status.Check{ID: common.NewID(), ClientName: string(rune('a' + i))}))
	}

	got, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ClientName)
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	m := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Catalog().List(ctx)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	err = m.Status().Ping(ctx)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	for _, err := range m.Karma().Entries(ctx, "any") {
		assert.ErrorIs(t, err, common.ErrUnavailable)
	}
}
