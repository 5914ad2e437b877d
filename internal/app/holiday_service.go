package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"holiday_greeter_bot/internal/domain/account"
	"holiday_greeter_bot/internal/domain/holiday"
)

// Custom application-level errors for holiday authoring
var ErrNotRegistered = fmt.Errorf("user has not registered a messaging account")
var ErrEmptyHolidayName = fmt.Errorf("holiday name must not be empty")
var ErrEmptyMessage = fmt.Errorf("holiday message must not be empty")
var ErrNoRecipients = fmt.Errorf("at least one recipient is required")

// InvalidRecipientsError lists handles that do not look like @usernames.
type InvalidRecipientsError struct {
	Handles []string
}

func (e *InvalidRecipientsError) Error() string {
	return fmt.Sprintf("invalid recipient handles: %s", strings.Join(e.Handles, ", "))
}

// HolidayDraft is the user input collected by the holiday form.
type HolidayDraft struct {
	Name       string
	Date       holiday.DateKey
	Message    string
	Recipients []string
}

// ParseRecipients splits space separated handles; every handle must start with '@'.
func ParseRecipients(text string) ([]string, error) {
	handles := strings.Fields(text)
	if len(handles) == 0 {
		return nil, ErrNoRecipients
	}
	var invalid []string
	for _, h := range handles {
		if !strings.HasPrefix(h, "@") || len(h) < 2 {
			invalid = append(invalid, h)
		}
	}
	if len(invalid) > 0 {
		return nil, &InvalidRecipientsError{Handles: invalid}
	}
	return handles, nil
}

type HolidayService struct {
	holidayRepo holiday.Repository
	accountRepo account.Repository
}

func NewHolidayService(hr holiday.Repository, ar account.Repository) *HolidayService {
	return &HolidayService{
		holidayRepo: hr,
		accountRepo: ar,
	}
}

// AddHoliday validates the draft and stores it for the owner's account.
func (s *HolidayService) AddHoliday(ctx context.Context, ownerTelegramID int64, draft HolidayDraft) (*holiday.Holiday, error) {
	if err := s.requireAccount(ctx, ownerTelegramID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, ErrEmptyHolidayName
	}
	if err := draft.Date.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if len(draft.Recipients) == 0 {
		return nil, ErrNoRecipients
	}

	h := &holiday.Holiday{
		OwnerTelegramID: ownerTelegramID,
		Name:            name,
		Day:             draft.Date.Day,
		Month:           draft.Date.Month,
		Recipients:      draft.Recipients,
		Message:         draft.Message,
	}
	if err := s.holidayRepo.Add(ctx, h); err != nil {
		if errors.Is(err, holiday.ErrDuplicateHoliday) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add holiday: %w", err)
	}
	return h, nil
}

func (s *HolidayService) ListHolidays(ctx context.Context, ownerTelegramID int64) ([]*holiday.Holiday, error) {
	holidays, err := s.holidayRepo.FetchByOwner(ctx, ownerTelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holidays, nil
}

func (s *HolidayService) RemoveHoliday(ctx context.Context, ownerTelegramID int64, holidayID int64) error {
	if err := s.holidayRepo.RemoveForOwner(ctx, holidayID, ownerTelegramID); err != nil {
		if errors.Is(err, holiday.ErrHolidayNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove holiday %d: %w", holidayID, err)
	}
	return nil
}

// IsRegistered reports whether the user has saved messaging-account credentials.
func (s *HolidayService) IsRegistered(ctx context.Context, telegramID int64) (bool, error) {
	err := s.requireAccount(ctx, telegramID)
	if errors.Is(err, ErrNotRegistered) {
		return false, nil
	}
	return err == nil, err
}

func (s *HolidayService) requireAccount(ctx context.Context, telegramID int64) error {
	_, err := s.accountRepo.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return nil
	}
	if errors.Is(err, account.ErrAccountNotFound) {
		return ErrNotRegistered
	}
	return fmt.Errorf("failed to check registration: %w", err)
}
