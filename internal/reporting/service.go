package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aira-backend/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository is the read side reporting needs; calls.Repository satisfies it.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]calls.Session, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) UserSummary(ctx context.Context, req SummaryRequest) (UserSummary, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return UserSummary{}, fmt.Errorf("%w: userId required", ErrInvalidRequest)
	}
	if !req.Range.From.IsZero() && !req.Range.To.IsZero() && !req.Range.To.After(req.Range.From) {
		return UserSummary{}, fmt.Errorf("%w: range end must be after start", ErrInvalidRequest)
	}
	if s.repo == nil {
		return UserSummary{}, errors.New("reporting: repository not configured")
	}
	if err := calls.AssertOwner(ctx, req.UserID); err != nil {
		return UserSummary{}, err
	}

	rows, err := s.repo.ListByUser(ctx, req.UserID)
	if err != nil {
		return UserSummary{}, err
	}

	out := UserSummary{UserID: req.UserID}
	ended := 0
	for _, c := range rows {
		if !req.Range.contains(c.StartedAt) {
			continue
		}
		out.TotalCalls++
		if c.EndedAt != nil {
			ended++
			out.TotalDurationSeconds += int64(c.EndedAt.Sub(c.StartedAt).Seconds())
		}
		if c.Recording != nil && c.Recording.AudioURL != "" {
			out.RecordedCalls++
		}
		switch c.Status {
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		default:
			out.InProgressCalls++
		}
	}
	if ended > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / int64(ended)
	}
	return out, nil
}
