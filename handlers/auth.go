package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"cube-panel/errs"
	"cube-panel/middleware"
	"cube-panel/models"
	"cube-panel/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CubeAuthHandler implements the device's two-step pairing: an initial code
// is issued per client id, then exchanged for a long-lived bearer token.
type CubeAuthHandler struct {
	store       *store.Store
	auth        *middleware.Auth
	log         *zap.Logger
	inlineCodes bool
}

func NewCubeAuthHandler(s *store.Store, auth *middleware.Auth, log *zap.Logger, inlineCodes bool) *CubeAuthHandler {
	return &CubeAuthHandler{store: s, auth: auth, log: log, inlineCodes: inlineCodes}
}

func newInitialCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// InitCode issues a fresh initial code for client_id, replacing any earlier
// one. The code is only returned inline when the client asks with
// return_code=1 and inline codes are enabled; otherwise it is shown on the
// device console.
func (h *CubeAuthHandler) InitCode(w http.ResponseWriter, r *http.Request) {
	p, err := params(r)
	if err != nil {
		authJSON(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	clientID := p["client_id"]
	if clientID == "" {
		authJSON(w, http.StatusBadRequest, false, "client_id is required")
		return
	}

	code, err := newInitialCode()
	if err != nil {
		h.log.Error("generate initial code", zap.Error(err))
		authJSON(w, http.StatusInternalServerError, false, "Failed to generate initial code")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("hash initial code", zap.Error(err))
		authJSON(w, http.StatusInternalServerError, false, "Failed to generate initial code")
		return
	}
	if err := h.store.SetInitialCode(clientID, string(hash)); err != nil {
		h.log.Error("store initial code", zap.String("client_id", clientID), zap.Error(err))
		authJSON(w, http.StatusInternalServerError, false, "Failed to generate initial code")
		return
	}

	resp := models.InitCodeResponse{Success: true, Message: "Initial code generated"}
	if h.inlineCodes && p["return_code"] == "1" {
		resp.InitialCode = code
	} else {
		h.log.Info("pairing code", zap.String("client_id", clientID), zap.String("initial_code", code))
		resp.Message = "Initial code shown on device"
	}
	writeJSON(w, http.StatusOK, resp)
}

// AuthHeader exchanges client_id and initial_code for a bearer token. The
// initial code is consumed on success.
func (h *CubeAuthHandler) AuthHeader(w http.ResponseWriter, r *http.Request) {
	p, err := params(r)
	if err != nil {
		authJSON(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	clientID, code := p["client_id"], p["initial_code"]

	switch err := h.verify(clientID, code); {
	case errors.Is(err, errs.ErrNotFound):
		authJSON(w, http.StatusUnauthorized, false, "Client id not found.")
		return
	case errors.Is(err, errs.ErrInvalidCode):
		h.log.Warn("initial code mismatch", zap.String("client_id", clientID))
		authJSON(w, http.StatusUnauthorized, false, "Initial code mismatch.")
		return
	case err != nil:
		h.log.Error("get client", zap.String("client_id", clientID), zap.Error(err))
		authJSON(w, http.StatusInternalServerError, false, "Internal error")
		return
	}

	token, err := h.auth.GenerateToken(clientID)
	if err != nil {
		h.log.Error("generate token", zap.Error(err))
		authJSON(w, http.StatusInternalServerError, false, "Failed to generate token")
		return
	}
	if err := h.store.SetAuthCode(clientID, token); err != nil {
		h.log.Error("store auth code", zap.String("client_id", clientID), zap.Error(err))
		authJSON(w, http.StatusInternalServerError, false, "Internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(middleware.TokenTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	h.log.Info("client paired", zap.String("client_id", clientID))
	writeJSON(w, http.StatusOK, models.AuthHeaderResponse{Success: true, AuthCode: token, Message: "Authorized"})
}

// verify checks code against the client's pending initial code.
func (h *CubeAuthHandler) verify(clientID, code string) error {
	client, err := h.store.GetClient(clientID)
	if err != nil {
		return err
	}
	if client.InitialCodeHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(client.InitialCodeHash), []byte(code)) != nil {
		return errs.ErrInvalidCode
	}
	return nil
}
