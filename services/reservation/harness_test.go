package reservation

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"rentify/models"

	"go.uber.org/zap"
)

// fakeClock is a settable clock for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// fakeScheduler runs deferred callbacks when the clock is advanced past
// their due time, in due order, never on a background goroutine.
type fakeScheduler struct {
	mu    sync.Mutex
	clock *fakeClock
	tasks map[int]*fakeTask
	next  int
}

type fakeTask struct {
	id    int
	dueAt time.Time
	fn    func()
}

func newFakeScheduler(clock *fakeClock) *fakeScheduler {
	return &fakeScheduler{clock: clock, tasks: make(map[int]*fakeTask)}
}

func (s *fakeScheduler) After(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.tasks[id] = &fakeTask{id: id, dueAt: s.clock.Now().Add(d), fn: fn}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.tasks, id)
	}
}

// advanceTo fires every task due at or before the target, stepping the clock
// to each task's due time first so callbacks observe consistent elapsed time.
func (s *fakeScheduler) advanceTo(target time.Time) {
	for {
		task := s.popDue(target)
		if task == nil {
			break
		}
		s.clock.set(task.dueAt)
		task.fn()
	}
	s.clock.set(target)
}

func (s *fakeScheduler) popDue(target time.Time) *fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := make([]*fakeTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.dueAt.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].dueAt.Equal(due[j].dueAt) {
			return due[i].id < due[j].id
		}
		return due[i].dueAt.Before(due[j].dueAt)
	})
	task := due[0]
	delete(s.tasks, task.id)
	return task
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// staticCatalog is an in-memory ExtrasCatalog.
type staticCatalog struct {
	mu     sync.Mutex
	extras []models.CatalogExtra
	err    error
	calls  int
}

func (c *staticCatalog) ListAvailableExtras(context.Context) ([]models.CatalogExtra, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.extras, nil
}

const (
	testTTL     = 30 * time.Minute
	testWarning = 5 * time.Minute
	testNS      = "session-1"
)

type env struct {
	svc     *DefaultReservationSessionService
	store   *MemorySessionStore
	clock   *fakeClock
	sched   *fakeScheduler
	catalog *staticCatalog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := newFakeClock(time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))
	sched := newFakeScheduler(clock)
	store := NewMemorySessionStore()
	catalog := &staticCatalog{
		extras: []models.CatalogExtra{
			{ID: "gps", Name: "GPS navigation", PricePerDay: 5},
			{ID: "child-seat", Name: "Child seat", PricePerDay: 7.5},
		},
	}
	timer := NewTimerController(store, sched, clock, testTTL, testWarning, zap.NewNop())
	svc := NewReservationSessionService(store, timer, catalog, zap.NewNop())
	return &env{svc: svc, store: store, clock: clock, sched: sched, catalog: catalog}
}

func (e *env) advance(d time.Duration) {
	e.sched.advanceTo(e.clock.Now().Add(d))
}

func baseFixture() models.ReservationBase {
	pickup := time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)
	return models.ReservationBase{
		Vehicle: models.Vehicle{
			ID:           "veh-1",
			Name:         "Seat Ibiza",
			Category:     "compact",
			Transmission: "manual",
			Seats:        5,
			PricePerDay:  50,
			TaxRate:      0.10,
		},
		PickupLocation: "Madrid",
		ReturnLocation: "Madrid",
		PickupTime:     pickup,
		ReturnTime:     pickup.Add(72 * time.Hour),
	}
}

func conductorFixture() models.Conductor {
	return models.Conductor{
		FirstName:    "Juan",
		LastName:     "García",
		Email:        "juan@example.com",
		Phone:        "+34600111222",
		DocumentType: "DNI",
		DocumentID:   "12345678Z",
		Address:      "Calle Mayor 1",
		City:         "Madrid",
	}
}
