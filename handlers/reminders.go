package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cube-panel/errs"
	"cube-panel/models"
	"cube-panel/store"
	"cube-panel/when"

	"go.uber.org/zap"
)

type ReminderHandler struct {
	store  *store.Store
	hub    *Hub
	log    *zap.Logger
	when   when.Parser
	device *DeviceHandler
}

func NewReminderHandler(s *store.Store, hub *Hub, log *zap.Logger, device *DeviceHandler) *ReminderHandler {
	return &ReminderHandler{store: s, hub: hub, log: log, device: device}
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.store.ListReminders()
	if err != nil {
		h.log.Error("list reminders", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "failed to fetch reminders")
		return
	}
	writeJSON(w, http.StatusOK, models.RemindersResponse{Reminders: reminders})
}

// Apply handles POST /api/reminder {op, id, ts, text}. It answers with the
// full list after the change.
func (h *ReminderHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req models.ReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, req)
}

func (h *ReminderHandler) respond(w http.ResponseWriter, req models.ReminderRequest) {
	if status, err := h.apply(req); err != nil {
		if status == http.StatusInternalServerError {
			h.log.Error("apply reminder", zap.String("op", req.Op), zap.Error(err))
			errorJSON(w, status, "failed to save reminder")
			return
		}
		errorJSON(w, status, err.Error())
		return
	}

	reminders, err := h.store.ListReminders()
	if err != nil {
		h.log.Error("list reminders", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "failed to fetch reminders")
		return
	}
	writeJSON(w, http.StatusOK, models.RemindersResponse{OK: true, Reminders: reminders})
}

func (h *ReminderHandler) apply(req models.ReminderRequest) (int, error) {
	text := strings.TrimSpace(req.Text)

	switch req.Op {
	case models.ReminderOpAdd:
		if text == "" {
			return http.StatusBadRequest, errors.New("text is required")
		}
		ts := req.TS
		if ts == 0 {
			ts = h.when.Parse(req.When, "").UnixMilli()
		}
		rem, err := h.store.CreateReminder(ts, text)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		h.log.Info("reminder added", zap.Int64("id", rem.ID), zap.Time("due", rem.DueAt()))

	case models.ReminderOpUpdate:
		if req.ID <= 0 {
			return http.StatusBadRequest, errors.New("id is required")
		}
		if text == "" {
			return http.StatusBadRequest, errors.New("text is required")
		}
		ts := req.TS
		if ts == 0 {
			if req.When != "" {
				ts = h.when.Parse(req.When, "").UnixMilli()
			} else {
				cur, err := h.store.GetReminder(req.ID)
				if errors.Is(err, errs.ErrNotFound) {
					return http.StatusNotFound, errors.New("reminder not found")
				}
				if err != nil {
					return http.StatusInternalServerError, err
				}
				ts = cur.TS
			}
		}
		err := h.store.UpdateReminder(req.ID, ts, text)
		if errors.Is(err, errs.ErrNotFound) {
			return http.StatusNotFound, errors.New("reminder not found")
		}
		if err != nil {
			return http.StatusInternalServerError, err
		}

	case models.ReminderOpDelete:
		if req.ID <= 0 {
			return http.StatusBadRequest, errors.New("id is required")
		}
		if err := h.store.DeleteReminder(req.ID); err != nil {
			return http.StatusInternalServerError, err
		}

	default:
		return http.StatusBadRequest, errors.New("unknown op")
	}
	return http.StatusOK, nil
}

// StartReminderChecker fires due reminders every interval until ctx is done.
func (h *ReminderHandler) StartReminderChecker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h.fireDue(now)
			}
		}
	}()
}

func (h *ReminderHandler) fireDue(now time.Time) {
	reminders, err := h.store.GetDueReminders(now)
	if err != nil {
		h.log.Error("due reminders", zap.Error(err))
		return
	}

	for _, reminder := range reminders {
		if err := h.store.MarkReminderFired(reminder.ID); err != nil {
			h.log.Error("mark reminder fired", zap.Int64("id", reminder.ID), zap.Error(err))
			continue
		}
		reminder.Fired = true

		h.log.Info("reminder due", zap.Int64("id", reminder.ID), zap.String("text", reminder.Text))
		if h.device != nil {
			h.device.AppendLog("reminder: " + reminder.Text)
		}
		if h.hub != nil {
			h.hub.Broadcast(models.WSMessage{Type: models.WSTypeReminder, Payload: reminder})
		}
	}
}
