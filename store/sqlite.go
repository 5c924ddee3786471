package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cube-panel/errs"
	"cube-panel/models"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SeedDefaults inserts the factory reminders and personality if the tables are empty.
func (s *Store) SeedDefaults(now time.Time) error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM reminders").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := s.CreateReminder(now.Add(45*time.Minute).UnixMilli(), "Stretch break"); err != nil {
			return err
		}
		if _, err := s.CreateReminder(now.Add(120*time.Minute).UnixMilli(), "Hydrate 💧"); err != nil {
			return err
		}
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM personality").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		def := models.DefaultPersonality()
		for _, trait := range models.PersonalityTraits {
			v, _ := def.Get(trait)
			if err := s.SetTrait(trait, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reminder operations

// CreateReminder inserts a reminder with id = max(id)+1.
func (s *Store) CreateReminder(ts int64, text string) (*models.Reminder, error) {
	reminder := &models.Reminder{
		TS:        ts,
		Text:      text,
		CreatedAt: time.Now(),
	}

	res, err := s.db.Exec(`
		INSERT INTO reminders (id, ts, text, fired, created_at)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM reminders), ?, ?, FALSE, ?)
	`, reminder.TS, reminder.Text, reminder.CreatedAt)
	if err != nil {
		return nil, err
	}

	reminder.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *Store) GetReminder(id int64) (*models.Reminder, error) {
	r := &models.Reminder{}
	err := s.db.QueryRow(`
		SELECT id, ts, text, fired, created_at FROM reminders WHERE id = ?
	`, id).Scan(&r.ID, &r.TS, &r.Text, &r.Fired, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReminders returns every reminder ordered by due time.
func (s *Store) ListReminders() ([]models.Reminder, error) {
	return s.queryReminders(`
		SELECT id, ts, text, fired, created_at
		FROM reminders
		ORDER BY ts ASC, id ASC
	`)
}

// GetDueReminders returns unfired reminders due at or before now.
func (s *Store) GetDueReminders(now time.Time) ([]models.Reminder, error) {
	return s.queryReminders(`
		SELECT id, ts, text, fired, created_at
		FROM reminders
		WHERE fired = FALSE AND ts <= ?
		ORDER BY ts ASC
	`, now.UnixMilli())
}

func (s *Store) queryReminders(query string, args ...any) ([]models.Reminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.ID, &r.TS, &r.Text, &r.Fired, &r.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// UpdateReminder rewrites text and due time. A changed due time re-arms the reminder.
func (s *Store) UpdateReminder(id, ts int64, text string) error {
	res, err := s.db.Exec(`
		UPDATE reminders SET text = ?, fired = CASE WHEN ts = ? THEN fired ELSE FALSE END, ts = ?
		WHERE id = ?
	`, text, ts, ts, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *Store) MarkReminderFired(id int64) error {
	_, err := s.db.Exec("UPDATE reminders SET fired = TRUE WHERE id = ?", id)
	return err
}

func (s *Store) DeleteReminder(id int64) error {
	_, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	return err
}

// Client operations

// SetInitialCode records a freshly issued initial-code hash for the client,
// creating the client on first contact. Any earlier code is replaced.
func (s *Store) SetInitialCode(clientID, codeHash string) error {
	_, err := s.db.Exec(`
		INSERT INTO clients (client_id, initial_code_hash, auth_code, role, created_at)
		VALUES (?, ?, '', 1, ?)
		ON CONFLICT(client_id) DO UPDATE SET initial_code_hash = excluded.initial_code_hash
	`, clientID, codeHash, time.Now())
	return err
}

func (s *Store) GetClient(clientID string) (*models.Client, error) {
	c := &models.Client{}
	err := s.db.QueryRow(`
		SELECT client_id, initial_code_hash, auth_code, role, created_at
		FROM clients WHERE client_id = ?
	`, clientID).Scan(&c.ClientID, &c.InitialCodeHash, &c.AuthCode, &c.Role, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetAuthCode stores the issued token and consumes the initial code.
func (s *Store) SetAuthCode(clientID, authCode string) error {
	res, err := s.db.Exec(`
		UPDATE clients SET auth_code = ?, initial_code_hash = '' WHERE client_id = ?
	`, authCode, clientID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// AuthCodeExists reports whether a token is currently registered to some client.
func (s *Store) AuthCodeExists(authCode string) (bool, error) {
	if authCode == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM clients WHERE auth_code = ?", authCode).Scan(&count)
	return count > 0, err
}

// Message operations

func (s *Store) CreateMessage(m *models.CubeMessage) error {
	_, err := s.db.Exec(`
		INSERT INTO messages (id, target, message, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.Target, m.Message, m.Status, m.Time)
	return err
}

func (s *Store) SetMessageStatus(id, status string) error {
	res, err := s.db.Exec("UPDATE messages SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// ListMessages returns the newest messages first.
func (s *Store) ListMessages(limit int) ([]models.CubeMessage, error) {
	rows, err := s.db.Query(`
		SELECT id, target, message, status, created_at
		FROM messages ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.CubeMessage{}
	for rows.Next() {
		var m models.CubeMessage
		if err := rows.Scan(&m.ID, &m.Target, &m.Message, &m.Status, &m.Time); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Personality

func (s *Store) GetPersonality() (models.Personality, error) {
	p := models.DefaultPersonality()
	rows, err := s.db.Query("SELECT trait, value FROM personality")
	if err != nil {
		return p, err
	}
	defer rows.Close()

	for rows.Next() {
		var trait string
		var v int
		if err := rows.Scan(&trait, &v); err != nil {
			return p, err
		}
		p.Set(trait, v)
	}
	return p, rows.Err()
}

func (s *Store) SetTrait(trait string, value int) error {
	_, err := s.db.Exec(`
		INSERT INTO personality (trait, value) VALUES (?, ?)
		ON CONFLICT(trait) DO UPDATE SET value = excluded.value
	`, trait, value)
	return err
}

// Settings

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.ErrNotFound
	}
	return value, err
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// Setting is one key of a SetSettings batch.
type Setting struct {
	Key   string
	Value string
}

// SetSettings writes every setting in order inside one transaction. Either
// all of them are stored or none are.
func (s *Store) SetSettings(settings []Setting) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range settings {
		if _, err := tx.Exec(`
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, st.Key, st.Value); err != nil {
			return fmt.Errorf("set %s: %w", st.Key, err)
		}
	}
	return tx.Commit()
}

// GetBoolSetting returns def when the key is unset or unparsable.
func (s *Store) GetBoolSetting(key string, def bool) bool {
	v, err := s.GetSetting(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
