package telegram

import (
	"sync"

	"holiday_greeter_bot/internal/app"
	"holiday_greeter_bot/internal/domain/messaging"
)

type step int

const (
	stepNone step = iota
	stepCredentials
	stepPhone
	stepCode
	stepHolidayName
	stepHolidayDate
	stepHolidayText
	stepHolidayUsers
)

// form is the state of one user's multi-message dialogue.
type form struct {
	step     step
	creds    messaging.Credentials
	codeHash string
	draft    app.HolidayDraft
}

// FormStore keeps in-progress forms per Telegram user. Forms are lost on restart.
type FormStore struct {
	mu    sync.Mutex
	forms map[int64]form
}

func NewFormStore() *FormStore {
	return &FormStore{forms: make(map[int64]form)}
}

func (s *FormStore) get(userID int64) form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[userID]
}

func (s *FormStore) set(userID int64, f form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[userID] = f
}

// clear drops the user's form and reports whether one was in progress.
func (s *FormStore) clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[userID]
	delete(s.forms, userID)
	return ok && f.step != stepNone
}
