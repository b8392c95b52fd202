// Package memory — хранилище в памяти процесса.
// Используется при STORAGE_DRIVER=memory (локальная разработка, демо) и в тестах.
// Даёт те же гарантии, что и PostgreSQL-репозитории: уникальность email,
// атомарное начисление кармы, однократное заполнение каталога.
package memory

import (
	"context"
	"iter"
	"math"
	"slices"
	"sync"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/features/catalog"
	"serotonyl.ru/ethical-karma/internal/features/karma"
	"serotonyl.ru/ethical-karma/internal/features/status"
	"serotonyl.ru/ethical-karma/internal/features/users"
)

// Store держит все коллекции под одним мьютексом.
type Store struct {
	mu sync.RWMutex

	products     []*catalog.Product
	productIndex map[string]int

	users      map[string]*users.User
	userOrder  []string
	emailIndex map[string]string

	journal []*karma.Entry // Общий журнал в порядке добавления
	byUser  map[string][]int

	checks []*status.Check
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		productIndex: make(map[string]int),
		users:        make(map[string]*users.User),
		emailIndex:   make(map[string]string),
		byUser:       make(map[string][]int),
	}
}

// Catalog возвращает хранилище каталога.
func (s *Store) Catalog() catalog.Store { return catalogStore{s} }

// Users возвращает хранилище пользователей.
func (s *Store) Users() users.Store { return userStore{s} }

// Karma возвращает журнал кармы.
func (s *Store) Karma() karma.Store { return karmaStore{s} }

// Status возвращает хранилище отметок.
func (s *Store) Status() status.Store { return statusStore{s} }

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return common.Unavailable(err)
	}
	return nil
}

// --- catalog ---

type catalogStore struct{ *Store }

func (s catalogStore) SeedIfEmpty(ctx context.Context, products []*catalog.Product) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) > 0 {
		return 0, nil
	}
	for _, p := range products {
		s.insertLocked(p)
	}
	return len(products), nil
}

func (s catalogStore) Insert(ctx context.Context, p *catalog.Product) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertLocked(p)
	return nil
}

func (s catalogStore) insertLocked(p *catalog.Product) {
	s.productIndex[p.ID] = len(s.products)
	s.products = append(s.products, cloneProduct(p))
}

func (s catalogStore) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.productIndex[id]
	if !ok {
		return nil, common.ErrProductNotFound
	}
	return cloneProduct(s.products[i]), nil
}

func (s catalogStore) List(ctx context.Context) ([]*catalog.Product, error) {
	return s.filter(ctx, func(*catalog.Product) bool { return true })
}

func (s catalogStore) ListByCategory(ctx context.Context, category string) ([]*catalog.Product, error) {
	return s.filter(ctx, func(p *catalog.Product) bool { return p.Category == category })
}

func (s catalogStore) filter(ctx context.Context, keep func(*catalog.Product) bool) ([]*catalog.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	c := *p
	c.EthicalBadges = slices.Clone(p.EthicalBadges)
	c.Alternatives = slices.Clone(p.Alternatives)
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		c.OriginalPrice = &op
	}
	return &c
}

// --- users ---

type userStore struct{ *Store }

func (s userStore) Create(ctx context.Context, u *users.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emailIndex[u.Email]; taken {
		return common.ErrEmailTaken
	}
	c := *u
	c.Purchases = slices.Clone(u.Purchases)
	s.users[u.ID] = &c
	s.userOrder = append(s.userOrder, u.ID)
	s.emailIndex[u.Email] = u.ID
	return nil
}

func (s userStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	c := *u
	c.Purchases = slices.Clone(u.Purchases)
	if c.Purchases == nil {
		c.Purchases = []string{}
	}
	return &c, nil
}

// --- karma ---

type karmaStore struct{ *Store }

func (s karmaStore) Append(ctx context.Context, e *karma.Entry) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(e)
	return nil
}

func (s karmaStore) appendLocked(e *karma.Entry) {
	c := *e
	s.byUser[e.UserID] = append(s.byUser[e.UserID], len(s.journal))
	s.journal = append(s.journal, &c)
}

// Grant делает инкремент и запись журнала под одной блокировкой —
// наблюдатель видит либо обе части, либо ни одной.
func (s karmaStore) Grant(ctx context.Context, e *karma.Entry) (karma.Balance, error) {
	if err := checkCtx(ctx); err != nil {
		return karma.Balance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[e.UserID]
	if !ok {
		return karma.Balance{}, common.ErrUserNotFound
	}
	if overflows(u.KarmaPoints, e.PointsEarned) || overflows(u.TotalImpactScore, e.PointsEarned) {
		return karma.Balance{}, common.Invalid("points", "karma balance out of range")
	}
	u.KarmaPoints += e.PointsEarned
	u.TotalImpactScore += e.PointsEarned
	s.appendLocked(e)
	return karma.Balance{KarmaPoints: u.KarmaPoints, TotalImpactScore: u.TotalImpactScore}, nil
}

// overflows повторяет отказ BIGINT в PostgreSQL (22003).
func overflows(balance, delta int64) bool {
	return (delta > 0 && balance > math.MaxInt64-delta) ||
		(delta < 0 && balance < math.MinInt64-delta)
}

// Entries отдаёт снимок индексов на момент начала range.
func (s karmaStore) Entries(ctx context.Context, userID string) iter.Seq2[*karma.Entry, error] {
	return func(yield func(*karma.Entry, error) bool) {
		if err := checkCtx(ctx); err != nil {
			yield(nil, err)
			return
		}
		s.mu.RLock()
		idx := slices.Clone(s.byUser[userID])
		s.mu.RUnlock()

		for _, i := range idx {
			s.mu.RLock()
			c := *s.journal[i]
			s.mu.RUnlock()
			if !yield(&c, nil) {
				return
			}
		}
	}
}

func (s karmaStore) Reconcile(ctx context.Context, userID string) (*karma.ReconcileResult, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}

	res := &karma.ReconcileResult{
		UserID: userID,
		Before: karma.Balance{KarmaPoints: u.KarmaPoints, TotalImpactScore: u.TotalImpactScore},
	}
	for _, i := range s.byUser[userID] {
		res.JournalSum += s.journal[i].PointsEarned
	}
	res.After = karma.Balance{KarmaPoints: res.JournalSum, TotalImpactScore: res.JournalSum}
	if res.After != res.Before {
		u.KarmaPoints = res.JournalSum
		u.TotalImpactScore = res.JournalSum
		res.Repaired = true
	}
	return res, nil
}

func (s karmaStore) UserIDs(ctx context.Context) ([]string, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.userOrder), nil
}

// --- status ---

type statusStore struct{ *Store }

func (s statusStore) Insert(ctx context.Context, c *status.Check) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.checks = append(s.checks, &cp)
	return nil
}

func (s statusStore) List(ctx context.Context, limit int) ([]*status.Check, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.checks))
	out := make([]*status.Check, 0, n)
	for _, c := range s.checks[:n] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s statusStore) Ping(ctx context.Context) error {
	return checkCtx(ctx)
}
