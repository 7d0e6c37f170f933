package attendance

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/synco-server/internal/errors"
)

// Summary is the response shape for attendance endpoints.
type Summary struct {
	EventID           string   `json:"event_id"`
	Attendees         []string `json:"attendees"`
	NonAttendees      []string `json:"non_attendees"`
	TotalAttendees    int      `json:"total_attendees"`
	TotalNonAttendees int      `json:"total_non_attendees"`
	Message           string   `json:"message"`
}

func newSummary(eventID string, a *EventAttendance, message string) *Summary {
	s := &Summary{
		EventID:      eventID,
		Attendees:    []string{},
		NonAttendees: []string{},
		Message:      message,
	}
	if a != nil {
		if a.Attendees != nil {
			s.Attendees = a.Attendees
		}
		if a.NonAttendees != nil {
			s.NonAttendees = a.NonAttendees
		}
	}
	s.TotalAttendees = len(s.Attendees)
	s.TotalNonAttendees = len(s.NonAttendees)
	return s
}

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

func validate(eventID, name string) error {
	if strings.TrimSpace(eventID) == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "event_id is required")
	}
	if strings.TrimSpace(name) == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "user_name is required")
	}
	return nil
}

// Mark records name as attending or not attending, moving it between lists.
func (s *Service) Mark(ctx context.Context, eventID, name string, attending bool) (*Summary, error) {
	if err := validate(eventID, name); err != nil {
		return nil, err
	}

	a, err := s.repo.SetAttendance(ctx, eventID, name, attending)
	if err != nil {
		return nil, fmt.Errorf("[attendance.Service.Mark] %w", err)
	}

	msg := fmt.Sprintf("%s marked as attending", name)
	if !attending {
		msg = fmt.Sprintf("%s marked as not attending", name)
	}
	return newSummary(eventID, a, msg), nil
}

// Get returns an empty summary for an event nobody has marked.
func (s *Service) Get(ctx context.Context, eventID string) (*Summary, error) {
	a, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("[attendance.Service.Get] %w", err)
	}
	return newSummary(eventID, a, ""), nil
}

func (s *Service) Remove(ctx context.Context, eventID, name string) (bool, error) {
	if err := validate(eventID, name); err != nil {
		return false, err
	}
	return s.repo.Remove(ctx, eventID, name)
}

func (s *Service) Delete(ctx context.Context, eventID string) (bool, error) {
	return s.repo.Delete(ctx, eventID)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]*Summary, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	records, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("[attendance.Service.List] %w", err)
	}
	out := make([]*Summary, 0, len(records))
	for _, a := range records {
		out = append(out, newSummary(a.EventID, a, ""))
	}
	return out, nil
}
