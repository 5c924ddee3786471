package handlers

import (
	"net/http"

	"cube-panel/models"
	"cube-panel/store"

	"go.uber.org/zap"
)

type PersonalityHandler struct {
	store *store.Store
	log   *zap.Logger
}

func NewPersonalityHandler(s *store.Store, log *zap.Logger) *PersonalityHandler {
	return &PersonalityHandler{store: s, log: log}
}

type personalityResponse struct {
	models.Personality
	Mood string `json:"mood"`
}

func (h *PersonalityHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPersonality()
	if err != nil {
		h.log.Error("get personality", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "failed to fetch personality")
		return
	}
	writeJSON(w, http.StatusOK, personalityResponse{Personality: p, Mood: p.Mood()})
}

func (h *PersonalityHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req models.PersonalityRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if status, msg := h.set(req); msg != "" {
		errorJSON(w, status, msg)
		return
	}
	ok(w)
}

func (h *PersonalityHandler) set(req models.PersonalityRequest) (int, string) {
	if _, known := models.DefaultPersonality().Get(req.Trait); !known {
		return http.StatusBadRequest, "unknown trait"
	}
	if req.Value < 0 || req.Value > 10 {
		return http.StatusBadRequest, "value must be between 0 and 10"
	}
	if err := h.store.SetTrait(req.Trait, req.Value); err != nil {
		h.log.Error("set trait", zap.String("trait", req.Trait), zap.Error(err))
		return http.StatusInternalServerError, "failed to save personality"
	}
	return http.StatusOK, ""
}
