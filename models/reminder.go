package models

import "time"

type Reminder struct {
	ID        int64     `json:"id"`
	TS        int64     `json:"ts"` // epoch milliseconds, local wall clock
	Text      string    `json:"text"`
	Fired     bool      `json:"fired,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// DueAt returns the reminder's due time.
func (r Reminder) DueAt() time.Time {
	return time.UnixMilli(r.TS)
}

const (
	ReminderOpAdd    = "add"
	ReminderOpUpdate = "update"
	ReminderOpDelete = "delete"
)

type ReminderRequest struct {
	Op   string `json:"op"`
	ID   int64  `json:"id,omitempty"`
	TS   int64  `json:"ts,omitempty"`
	Text string `json:"text,omitempty"`
	When string `json:"when,omitempty"` // free-text phrase resolved server-side when TS is 0
}

type RemindersResponse struct {
	OK        bool       `json:"ok,omitempty"`
	Reminders []Reminder `json:"reminders"`
}

const (
	WSTypeReminder = "reminder"
)
