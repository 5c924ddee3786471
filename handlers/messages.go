package handlers

import (
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"cube-panel/models"
	"cube-panel/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const messageHistory = 50

// MessageHandler relays cube-to-cube messages. Each send is acknowledged by
// the simulated peer 700 to 1600ms later.
type MessageHandler struct {
	store    *store.Store
	hub      *Hub
	log      *zap.Logger
	ackDelay func() time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewMessageHandler(s *store.Store, hub *Hub, log *zap.Logger) *MessageHandler {
	return &MessageHandler{
		store: s,
		hub:   hub,
		log:   log,
		ackDelay: func() time.Duration {
			return 700*time.Millisecond + rand.N(900*time.Millisecond)
		},
		pending: make(map[string]*time.Timer),
	}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, msg := h.send(req); msg != "" {
		errorJSON(w, http.StatusBadRequest, msg)
		return
	}
	ok(w)
}

func (h *MessageHandler) send(req models.SendMessageRequest) (*models.CubeMessage, string) {
	req.Target = strings.TrimSpace(req.Target)
	if req.Target == "" || strings.TrimSpace(req.Message) == "" {
		return nil, "target and message are required"
	}

	m := &models.CubeMessage{
		ID:      uuid.NewString(),
		Time:    time.Now(),
		Target:  req.Target,
		Message: req.Message,
		Status:  models.MessageStatusSent,
	}
	if err := h.store.CreateMessage(m); err != nil {
		h.log.Error("create message", zap.Error(err))
		return nil, "failed to send message"
	}
	h.log.Info("message sent", zap.String("id", m.ID), zap.String("target", m.Target))

	h.mu.Lock()
	h.pending[m.ID] = time.AfterFunc(h.ackDelay(), func() { h.ack(*m) })
	h.mu.Unlock()
	return m, ""
}

func (h *MessageHandler) ack(m models.CubeMessage) {
	h.mu.Lock()
	delete(h.pending, m.ID)
	h.mu.Unlock()

	if err := h.store.SetMessageStatus(m.ID, models.MessageStatusAck); err != nil {
		h.log.Warn("ack message", zap.String("id", m.ID), zap.Error(err))
		return
	}
	m.Status = models.MessageStatusAck
	if h.hub != nil {
		h.hub.Broadcast(models.WSMessage{Type: models.WSTypeMessageStatus, Payload: m})
	}
}

// List returns recent messages, newest first.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.ListMessages(messageHistory)
	if err != nil {
		h.log.Error("list messages", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, models.MessagesResponse{Messages: messages})
}

// Stop cancels acknowledgements that have not fired yet.
func (h *MessageHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, t := range h.pending {
		t.Stop()
		delete(h.pending, id)
	}
}
