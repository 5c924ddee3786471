// Package reminders manages the device's reminder list over its HTTP API.
package reminders

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"cube-panel/client"
	"cube-panel/models"
)

type Service struct {
	client *client.Client
}

func New(c *client.Client) *Service {
	return &Service{client: c}
}

// List returns the reminders sorted by due time, ties broken by id.
func (s *Service) List(ctx context.Context) ([]models.Reminder, error) {
	var out models.RemindersResponse
	if err := s.client.GetJSON(ctx, "/api/reminders", &out); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return sorted(out.Reminders), nil
}

func (s *Service) Add(ctx context.Context, due time.Time, text string) ([]models.Reminder, error) {
	return s.apply(ctx, models.ReminderRequest{Op: models.ReminderOpAdd, TS: due.UnixMilli(), Text: text})
}

func (s *Service) Update(ctx context.Context, id int64, due time.Time, text string) ([]models.Reminder, error) {
	return s.apply(ctx, models.ReminderRequest{Op: models.ReminderOpUpdate, ID: id, TS: due.UnixMilli(), Text: text})
}

func (s *Service) Delete(ctx context.Context, id int64) ([]models.Reminder, error) {
	return s.apply(ctx, models.ReminderRequest{Op: models.ReminderOpDelete, ID: id})
}

func (s *Service) apply(ctx context.Context, req models.ReminderRequest) ([]models.Reminder, error) {
	var out models.RemindersResponse
	if err := s.client.PostJSON(ctx, "/api/reminder", req, &out); err != nil {
		return nil, fmt.Errorf("%s reminder: %w", req.Op, err)
	}
	return sorted(out.Reminders), nil
}

// Export writes the current list as indented JSON.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	list, err := s.List(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

func sorted(list []models.Reminder) []models.Reminder {
	if list == nil {
		return []models.Reminder{}
	}
	slices.SortStableFunc(list, func(a, b models.Reminder) int {
		if c := cmp.Compare(a.TS, b.TS); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return list
}
