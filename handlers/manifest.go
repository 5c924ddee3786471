package handlers

import (
	"net/http"
	"strconv"

	"cube-panel/models"
)

// withParams adapts fn to a manifest endpoint. fn returns a status and a
// message on failure, or "" on success.
func withParams(fn func(p map[string]string) (int, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := params(r)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if status, msg := fn(p); msg != "" {
			errorJSON(w, status, msg)
			return
		}
		ok(w)
	}
}

func (s *Server) registerEndpoints() {
	add := func(category, name string, params []string, public bool, method string, h http.HandlerFunc) {
		s.Endpoints.Add(models.EndpointDescriptor{
			Category: category,
			Name:     name,
			Params:   params,
			Public:   public,
			Method:   method,
		}, h)
	}
	get, post := http.MethodGet, http.MethodPost

	add("CubeAuth", "initCode", []string{"client_id"}, true, get, s.CubeAuth.InitCode)
	add("CubeAuth", "authHeader", []string{"client_id", "initial_code"}, true, get, s.CubeAuth.AuthHeader)

	add("System", "status", nil, true, get, s.Device.Status)
	add("System", "logs", nil, false, get, s.Device.Logs)
	add("System", "restart", nil, false, post, withParams(func(map[string]string) (int, string) {
		s.Device.restart()
		return http.StatusOK, ""
	}))
	add("System", "setMode", []string{"cloud"}, false, post, withParams(func(p map[string]string) (int, string) {
		cloud, err := strconv.ParseBool(p["cloud"])
		if err != nil {
			return http.StatusBadRequest, "cloud must be true or false"
		}
		if err := s.Device.setMode(cloud); err != nil {
			return http.StatusInternalServerError, "failed to save mode"
		}
		return http.StatusOK, ""
	}))

	add("Network", "scan", nil, false, get, s.Device.ScanNetworks)
	add("Network", "connect", []string{"ssid", "password"}, false, post, withParams(func(p map[string]string) (int, string) {
		return s.Device.saveNetwork(models.NetworkSettings{SSID: p["ssid"], Password: p["password"]})
	}))

	add("Reminders", "list", nil, false, get, s.Reminders.List)
	add("Reminders", "add", []string{"text", "when"}, false, post, s.reminderOp(models.ReminderOpAdd))
	add("Reminders", "update", []string{"id", "text", "when"}, false, post, s.reminderOp(models.ReminderOpUpdate))
	add("Reminders", "delete", []string{"id"}, false, post, s.reminderOp(models.ReminderOpDelete))

	add("Messaging", "send", []string{"target", "message"}, false, post, withParams(func(p map[string]string) (int, string) {
		if _, msg := s.Messages.send(models.SendMessageRequest{Target: p["target"], Message: p["message"]}); msg != "" {
			return http.StatusBadRequest, msg
		}
		return http.StatusOK, ""
	}))
	add("Messaging", "history", nil, false, get, s.Messages.List)

	add("Personality", "get", nil, true, get, s.Personality.Get)
	add("Personality", "set", []string{"trait", "value"}, false, post, withParams(func(p map[string]string) (int, string) {
		v, err := strconv.Atoi(p["value"])
		if err != nil {
			return http.StatusBadRequest, "value must be a number"
		}
		return s.Personality.set(models.PersonalityRequest{Trait: p["trait"], Value: v})
	}))

	add("Triggers", "fire", []string{"event"}, false, post, withParams(func(p map[string]string) (int, string) {
		if p["event"] == "" {
			return http.StatusBadRequest, "event is required"
		}
		s.Device.AppendLog("trigger: " + p["event"])
		return http.StatusOK, ""
	}))
}

func (s *Server) reminderOp(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := params(r)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req := models.ReminderRequest{Op: op, Text: p["text"], When: p["when"]}
		if v := p["id"]; v != "" {
			if req.ID, err = strconv.ParseInt(v, 10, 64); err != nil {
				errorJSON(w, http.StatusBadRequest, "id must be a number")
				return
			}
		}
		s.Reminders.respond(w, req)
	}
}
