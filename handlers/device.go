package handlers

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"cube-panel/models"
	"cube-panel/store"

	"go.uber.org/zap"
)

const (
	maxLogLines      = 100
	logStreamPeriod  = 1500 * time.Millisecond
	settingModeCloud = "mode_cloud"
)

var defaultSSIDs = []string{"CubeNet", "Workshop", "VanLab", "Dragonfly", "CoffeeBar"}

// DeviceHandler serves the simulated device: status, the rolling log,
// restarts, cloud mode and triggers.
type DeviceHandler struct {
	store *store.Store
	hub   *Hub
	log   *zap.Logger
	host  string
	ip    string

	mu       sync.Mutex
	bootTime time.Time
	tempC    float64
	memUsed  int
	memTotal int
	lines    []string
	now      func() time.Time
}

func NewDeviceHandler(s *store.Store, hub *Hub, log *zap.Logger, host, ip string) *DeviceHandler {
	return &DeviceHandler{
		store:    s,
		hub:      hub,
		log:      log,
		host:     host,
		ip:       ip,
		bootTime: time.Now().Add(-37 * time.Minute),
		tempC:    48.7,
		memUsed:  1320,
		memTotal: 3996,
		now:      time.Now,
	}
}

// Status returns the current snapshot with a little sensor jitter.
func (h *DeviceHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *DeviceHandler) snapshot() models.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return models.Status{
		Online:    true,
		Net:       "Wi-Fi",
		IP:        h.ip,
		Host:      h.host,
		Uptime:    int64(h.now().Sub(h.bootTime).Seconds()),
		TempC:     h.tempC + (rand.Float64()*0.6 - 0.3),
		MemUsed:   h.memUsed + rand.IntN(20) - 10,
		MemTotal:  h.memTotal,
		ModeCloud: h.store.GetBoolSetting(settingModeCloud, false),
	}
}

// Logs returns at most the last 100 lines, oldest first.
func (h *DeviceHandler) Logs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.LogsResponse{Lines: h.Lines()})
}

func (h *DeviceHandler) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}

func (h *DeviceHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.restart()
	ok(w)
}

func (h *DeviceHandler) restart() {
	h.AppendLog("system: restarting services...")
	h.log.Info("restart requested")
}

func (h *DeviceHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req models.ModeRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.setMode(req.Cloud); err != nil {
		h.log.Error("set mode", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "failed to save mode")
		return
	}
	ok(w)
}

func (h *DeviceHandler) setMode(cloud bool) error {
	if err := h.store.SetSetting(settingModeCloud, strconv.FormatBool(cloud)); err != nil {
		return err
	}
	mode := "local"
	if cloud {
		mode = "cloud"
	}
	h.AppendLog("system: mode set to " + mode)
	return nil
}

func (h *DeviceHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req models.TriggerRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Event == "" {
		errorJSON(w, http.StatusBadRequest, "event is required")
		return
	}
	h.AppendLog("trigger: " + req.Event)
	ok(w)
}

// AppendLog adds a timestamped line to the rolling log, dropping the oldest
// beyond 100, and pushes it to websocket clients.
func (h *DeviceHandler) AppendLog(text string) {
	h.mu.Lock()
	line := "[" + h.now().Format("15:04:05") + "] " + text
	h.lines = append(h.lines, line)
	if len(h.lines) > maxLogLines {
		h.lines = h.lines[len(h.lines)-maxLogLines:]
	}
	h.mu.Unlock()

	if h.hub != nil {
		h.hub.Broadcast(models.WSMessage{Type: models.WSTypeLogLine, Payload: line})
	}
}

func (h *DeviceHandler) sample() string {
	h.mu.Lock()
	temp := h.tempC
	h.mu.Unlock()
	samples := []string{
		"llm: on-device intent matched: hydration_reminder",
		"audio: beamformer init ok",
		"mesh: link quality 0.82 to node 9F3C",
		"ui: animation 'sparkle' queued",
		"system: idle temp " + strconv.FormatFloat(temp, 'f', 1, 64) + "°C",
		"scheduler: 2 tasks due in next hour",
		"radio: lora ping rssi -92dBm snr 8.1dB",
		"trigger: greeting played",
	}
	return samples[rand.IntN(len(samples))]
}

// StartLogStream appends a sample line every 1.5s until ctx is done.
func (h *DeviceHandler) StartLogStream(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(logStreamPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.AppendLog(h.sample())
			}
		}
	}()
}
