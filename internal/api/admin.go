package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/identity"
	"github.com/nyralabs/nira/internal/logging"
)

// requireAdmin gates the admin surface on the caller's stored role
// (or founder email) and, when configured, an ops passphrase header.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := identity.ClaimsFrom(r.Context())
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		allowed, err := s.adminSvc.Authorize(claims.UserID, claims.Email)
		if err != nil {
			logging.WithField("user", claims.UserID).Error("admin check failed: %v", err)
			s.respondError(w, http.StatusInternalServerError, "Admin check failed")
			return
		}
		if !allowed {
			s.respondError(w, http.StatusForbidden, "Admin access required")
			return
		}

		if s.opsPassphraseHash != "" && r.Method != http.MethodGet {
			if !identity.CheckPassphrase(s.opsPassphraseHash, r.Header.Get("X-Ops-Passphrase")) {
				s.respondError(w, http.StatusForbidden, "Ops passphrase required")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.adminSvc.GetStats(time.Now())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.adminSvc.ListUsers(100)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminConfig(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	updated, err := s.adminSvc.UpdateConfig(patch)
	if errors.Is(err, core.ErrInvalidInput) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Publish("config", updated)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Config updated successfully.",
	})
}

func (s *Server) handleAdminKillSwitch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target  string `json:"target"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	updated, err := s.adminSvc.Toggle(req.Target, req.Enabled)
	if errors.Is(err, core.ErrInvalidInput) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Publish("config", updated)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"target":  req.Target,
		"enabled": req.Enabled,
	})
}

func (s *Server) handleAdminModerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := s.adminSvc.Moderate(req.UserID, req.Action); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Publish("moderation", map[string]string{"user_id": req.UserID, "action": req.Action})
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"userId":  req.UserID,
		"action":  req.Action,
	})
}
