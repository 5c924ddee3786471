package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cube-panel/client"
	"cube-panel/models"

	"github.com/stretchr/testify/require"
)

// fakeDevice keeps reminders in memory and returns them unsorted.
type fakeDevice struct {
	mu    sync.Mutex
	items []models.Reminder
	last  models.ReminderRequest
}

func (f *fakeDevice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/reminders":
		json.NewEncoder(w).Encode(models.RemindersResponse{Reminders: f.items})
	case r.Method == http.MethodPost && r.URL.Path == "/api/reminder":
		var req models.ReminderRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.last = req
		switch req.Op {
		case "add":
			var id int64
			for _, it := range f.items {
				id = max(id, it.ID)
			}
			f.items = append(f.items, models.Reminder{ID: id + 1, TS: req.TS, Text: req.Text})
		case "update":
			for i := range f.items {
				if f.items[i].ID == req.ID {
					f.items[i].TS, f.items[i].Text = req.TS, req.Text
				}
			}
		case "delete":
			kept := f.items[:0]
			for _, it := range f.items {
				if it.ID != req.ID {
					kept = append(kept, it)
				}
			}
			f.items = kept
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"error":"unknown op"}`))
			return
		}
		json.NewEncoder(w).Encode(models.RemindersResponse{OK: true, Reminders: f.items})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"ok":false,"error":"mock: unknown endpoint"}`))
	}
}

func newService(t *testing.T, dev *fakeDevice) *Service {
	t.Helper()
	srv := httptest.NewServer(dev)
	t.Cleanup(srv.Close)
	return New(client.New(srv.URL))
}

func TestList_SortedByDueThenID(t *testing.T) {
	t.Parallel()
	dev := &fakeDevice{items: []models.Reminder{
		{ID: 3, TS: 2000, Text: "c"},
		{ID: 2, TS: 1000, Text: "b"},
		{ID: 1, TS: 2000, Text: "a"},
	}}
	list, err := newService(t, dev).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1, 3}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func TestList_EmptyIsNotNil(t *testing.T) {
	t.Parallel()
	list, err := newService(t, &fakeDevice{}).List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestAddUpdateDelete(t *testing.T) {
	t.Parallel()
	dev := &fakeDevice{}
	s := newService(t, dev)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)

	list, err := s.Add(ctx, base.Add(time.Hour), "later")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, base.Add(time.Hour).UnixMilli(), dev.last.TS)

	list, err = s.Add(ctx, base.Add(time.Minute), "sooner")
	require.NoError(t, err)
	require.Equal(t, "sooner", list[0].Text)
	require.Equal(t, int64(2), list[0].ID)
	require.True(t, list[0].DueAt().Equal(base.Add(time.Minute)))

	list, err = s.Update(ctx, 1, base, "first")
	require.NoError(t, err)
	require.Equal(t, models.ReminderOpUpdate, dev.last.Op)
	require.Equal(t, "first", list[0].Text)

	list, err = s.Delete(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].ID)
}

func TestExport(t *testing.T) {
	t.Parallel()
	dev := &fakeDevice{items: []models.Reminder{{ID: 1, TS: 5, Text: "Stretch break"}}}
	var buf bytes.Buffer
	require.NoError(t, newService(t, dev).Export(context.Background(), &buf))
	require.JSONEq(t, `[{"id":1,"ts":5,"text":"Stretch break"}]`, buf.String())
	require.Contains(t, buf.String(), "\n  {")
}

func TestErrorsCarryDeviceMessage(t *testing.T) {
	t.Parallel()
	s := newService(t, &fakeDevice{})
	_, err := s.apply(context.Background(), models.ReminderRequest{Op: "explode"})
	var appErr *client.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "unknown op", appErr.Message)
}
