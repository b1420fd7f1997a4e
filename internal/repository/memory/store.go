// Package memory keeps the ledger in process memory. It backs
// STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/database"
)

type txKey struct{}

// Store holds every table. Repositories created from the same Store share it.
//
// Writes are serialized with transactions: a write outside a transaction
// waits for the running one to finish, so a rollback never discards it.
type Store struct {
	mu     sync.RWMutex
	users  map[string]user.User
	rates  map[string]user.HourlyRate
	days   map[string]attendance.AttendanceDay
	breaks map[string]attendance.BreakInterval

	// txMu is held by a transaction for its whole run and by every write
	// made outside one.
	txMu sync.Mutex

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:  map[string]user.User{},
		rates:  map[string]user.HourlyRate{},
		days:   map[string]attendance.AttendanceDay{},
		breaks: map[string]attendance.BreakInterval{},
		now:    time.Now,
	}
}

type snapshot struct {
	users  map[string]user.User
	rates  map[string]user.HourlyRate
	days   map[string]attendance.AttendanceDay
	breaks map[string]attendance.BreakInterval
}

func copyMap[K comparable, V any](m map[K]V, clone func(V) V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func same[V any](v V) V { return v }

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:  copyMap(s.users, same[user.User]),
		rates:  copyMap(s.rates, same[user.HourlyRate]),
		days:   copyMap(s.days, cloneDay),
		breaks: copyMap(s.breaks, cloneBreak),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.rates = snap.rates
	s.days = snap.days
	s.breaks = snap.breaks
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// lockWrite locks the tables for a write and returns the unlock function.
// Outside a transaction it also takes txMu.
func (s *Store) lockWrite(ctx context.Context) func() {
	if inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

type transactor struct {
	store *Store
}

// NewTransactor returns a Transactor that restores the store when fn fails.
func NewTransactor(s *Store) database.Transactor {
	return &transactor{store: s}
}

// WithinTransaction implements database.Transactor.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			t.store.restore(snap)
			panic(p)
		}
		if err != nil {
			t.store.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

type dayLocker struct{}

// NewDayLocker returns a DayLocker for a single process, where the keyed
// mutex in the service already serializes days.
func NewDayLocker() attendance.DayLocker {
	return dayLocker{}
}

func (dayLocker) LockDay(ctx context.Context, userID string, date time.Time) error {
	return ctx.Err()
}

func (dayLocker) LockUser(ctx context.Context, userID string) error {
	return ctx.Err()
}

func cloneDay(d attendance.AttendanceDay) attendance.AttendanceDay {
	d.ClockIn = cloneTime(d.ClockIn)
	d.ClockOut = cloneTime(d.ClockOut)
	if d.Flags != nil {
		d.Flags = append(d.Flags[:0:0], d.Flags...)
	}
	d.Breaks = nil
	return d
}

func cloneBreak(b attendance.BreakInterval) attendance.BreakInterval {
	b.End = cloneTime(b.End)
	return b
}
