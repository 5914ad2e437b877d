package app

import (
	"context"
	"errors"
	"io"
	"sync"

	"holiday_greeter_bot/internal/domain/account"
	"holiday_greeter_bot/internal/domain/holiday"
	"holiday_greeter_bot/internal/domain/messaging"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestLogger() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l), hook
}

type memHolidayRepo struct {
	mu       sync.Mutex
	nextID   int64
	holidays []*holiday.Holiday
	fetchErr error
}

func (r *memHolidayRepo) FetchByDate(_ context.Context, key holiday.DateKey) ([]*holiday.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	out := make([]*holiday.Holiday, 0)
	for _, h := range r.holidays {
		if h.Key() == key {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memHolidayRepo) FetchAll(context.Context) ([]*holiday.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*holiday.Holiday(nil), r.holidays...), nil
}

func (r *memHolidayRepo) FetchByOwner(_ context.Context, owner int64) ([]*holiday.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*holiday.Holiday, 0)
	for _, h := range r.holidays {
		if h.OwnerTelegramID == owner {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memHolidayRepo) Add(_ context.Context, h *holiday.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.holidays {
		if existing.OwnerTelegramID == h.OwnerTelegramID && existing.Name == h.Name && existing.Key() == h.Key() {
			return holiday.ErrDuplicateHoliday
		}
	}
	r.nextID++
	h.ID = r.nextID
	r.holidays = append(r.holidays, h)
	return nil
}

func (r *memHolidayRepo) Remove(ctx context.Context, id int64) error {
	return r.remove(id, func(*holiday.Holiday) bool { return true })
}

func (r *memHolidayRepo) RemoveForOwner(_ context.Context, id int64, owner int64) error {
	return r.remove(id, func(h *holiday.Holiday) bool { return h.OwnerTelegramID == owner })
}

func (r *memHolidayRepo) remove(id int64, match func(*holiday.Holiday) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, h := range r.holidays {
		if h.ID == id && match(h) {
			r.holidays = append(r.holidays[:i], r.holidays[i+1:]...)
			return nil
		}
	}
	return holiday.ErrHolidayNotFound
}

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]*account.Account
	saves    int
}

func newMemAccountRepo(ids ...int64) *memAccountRepo {
	r := &memAccountRepo{accounts: map[int64]*account.Account{}}
	for _, id := range ids {
		r.accounts[id] = &account.Account{ID: id, TelegramID: id}
	}
	return r
}

func (r *memAccountRepo) Save(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	a.ID = int64(r.saves)
	r.accounts[a.TelegramID] = a
	return nil
}

func (r *memAccountRepo) GetByTelegramID(_ context.Context, id int64) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return a, nil
}

func (r *memAccountRepo) ListAll(context.Context) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*account.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *memAccountRepo) Remove(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return account.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

type sentMessage struct {
	owner     int64
	recipient string
	text      string
}

// fakeMessenger records every send and fails the recipients listed in failFor.
type fakeMessenger struct {
	mu         sync.Mutex
	sent       []sentMessage
	attempts   []string
	failFor    map[string]bool
	openErrFor map[int64]error
	opened     int
	closed     int
	panicFor   string
}

func (m *fakeMessenger) Open(_ context.Context, owner int64) (messaging.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.openErrFor[owner]; err != nil {
		return nil, err
	}
	m.opened++
	return &fakeSession{owner: owner, m: m}, nil
}

type fakeSession struct {
	owner int64
	m     *fakeMessenger
}

func (s *fakeSession) Send(_ context.Context, recipient, text string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.attempts = append(s.m.attempts, recipient)
	if recipient == s.m.panicFor && recipient != "" {
		panic("session exploded")
	}
	if s.m.failFor[recipient] {
		return errors.New("PEER_ID_INVALID")
	}
	s.m.sent = append(s.m.sent, sentMessage{owner: s.owner, recipient: recipient, text: text})
	return nil
}

func (s *fakeSession) Close() error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.closed++
	return nil
}

type fakeAuth struct {
	sendCodeErr error
	signInErr   error
	codeHash    string
	signedIn    []string
}

func (a *fakeAuth) SendCode(context.Context, int64, messaging.Credentials) (string, error) {
	if a.sendCodeErr != nil {
		return "", a.sendCodeErr
	}
	return a.codeHash, nil
}

func (a *fakeAuth) SignIn(_ context.Context, _ int64, _ messaging.Credentials, code, codeHash string) error {
	if a.signInErr != nil {
		return a.signInErr
	}
	a.signedIn = append(a.signedIn, code+"/"+codeHash)
	return nil
}
