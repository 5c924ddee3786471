package handlers

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"

	"cube-panel/models"
	"cube-panel/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ScanNetworks returns four or five of the known SSIDs in random order.
func (h *DeviceHandler) ScanNetworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scan())
}

func scan() []string {
	ssids := make([]string, len(defaultSSIDs))
	copy(ssids, defaultSSIDs)
	rand.Shuffle(len(ssids), func(i, j int) { ssids[i], ssids[j] = ssids[j], ssids[i] })
	return ssids[:4+rand.IntN(2)]
}

func (h *DeviceHandler) SaveNetwork(w http.ResponseWriter, r *http.Request) {
	var req models.NetworkSettings
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if status, msg := h.saveNetwork(req); msg != "" {
		errorJSON(w, status, msg)
		return
	}
	ok(w)
}

// saveNetwork validates and persists Wi-Fi settings. It returns a status and
// a user-facing message on failure.
func (h *DeviceHandler) saveNetwork(req models.NetworkSettings) (int, string) {
	if req.SSID == "" {
		return http.StatusBadRequest, "ssid is required"
	}
	switch req.Mode {
	case "":
		req.Mode = "dhcp"
	case "dhcp":
	case "static":
		if req.Static.IP == "" {
			return http.StatusBadRequest, "static mode requires an ip"
		}
	default:
		return http.StatusBadRequest, "mode must be dhcp or static"
	}

	hash := ""
	if req.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.log.Error("hash wifi password", zap.Error(err))
			return http.StatusInternalServerError, "failed to save network"
		}
		hash = string(b)
	}
	static, _ := json.Marshal(req.Static)

	err := h.store.SetSettings([]store.Setting{
		{Key: "wifi_ssid", Value: req.SSID},
		{Key: "wifi_password_hash", Value: hash},
		{Key: "wifi_mode", Value: req.Mode},
		{Key: "wifi_static", Value: string(static)},
	})
	if err != nil {
		h.log.Error("save network", zap.String("ssid", req.SSID), zap.Error(err))
		return http.StatusInternalServerError, "failed to save network"
	}

	h.AppendLog("network: joining " + req.SSID + " (" + req.Mode + ")")
	h.log.Info("network saved", zap.String("ssid", req.SSID), zap.String("mode", req.Mode))
	return http.StatusOK, ""
}
