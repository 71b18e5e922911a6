package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nyralabs/nira/internal/chat"
	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/identity"
	"github.com/nyralabs/nira/internal/logging"
)

// authenticate resolves the bearer token into caller claims.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.respondError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
			return
		}

		claims, err := s.verifier.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if errors.Is(err, core.ErrTokenExpired) {
			s.respondError(w, http.StatusUnauthorized, "Unauthorized: Token expired")
			return
		}
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithClaims(r.Context(), claims)))
	})
}

type chatRequest struct {
	Message           string `json:"message"`
	Persona           string `json:"persona"`
	Image             string `json:"image"`
	VisionDescription string `json:"visionDescription"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFrom(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := s.chatSvc.Turn(r.Context(), chatTurnInput(claims.UserID, req))
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		s.respondError(w, http.StatusBadRequest, "Message is required")
		return
	case errors.Is(err, core.ErrUserSuspended):
		s.respondError(w, http.StatusForbidden, "Account suspended")
		return
	case err != nil:
		logging.WithField("user", claims.UserID).Error("chat turn failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if result.Limited {
		// The refusal reads as a normal reply so the client renders it
		// in the conversation.
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"response": result.Reply,
			"blocked":  true,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

type visionRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
}

func (s *Server) handleVision(w http.ResponseWriter, r *http.Request) {
	if s.visioner == nil || !s.visioner.IsConfigured() {
		s.respondError(w, http.StatusServiceUnavailable, "Vision not configured")
		return
	}
	if cfg := s.adminSvc.Config(); cfg != nil && !cfg.Features.VisionEnabled {
		s.respondError(w, http.StatusServiceUnavailable, "Vision is disabled")
		return
	}

	var req visionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	description, err := s.visioner.AnalyzeImage(r.Context(), req.Image, req.MimeType)
	switch {
	case errors.Is(err, core.ErrImageRequired):
		s.respondError(w, http.StatusBadRequest, "Image is required")
		return
	case errors.Is(err, core.ErrImageTooSmall):
		s.respondError(w, http.StatusBadRequest, "Image payload too small")
		return
	case err != nil:
		logging.Error("vision analysis failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Vision analysis failed")
		return
	}

	if claims, ok := identity.ClaimsFrom(r.Context()); ok {
		go s.logUsage(claims.UserID, "vision", len(req.Image)/1024)
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"description": description})
}

type ttsRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
	Speaker      string `json:"speaker"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if s.speaker == nil || !s.speaker.IsConfigured() {
		s.respondError(w, http.StatusServiceUnavailable, "TTS not configured")
		return
	}
	if cfg := s.adminSvc.Config(); cfg != nil && !cfg.Features.TTSEnabled {
		s.respondError(w, http.StatusServiceUnavailable, "TTS is disabled")
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	audio, err := s.speaker.Speak(r.Context(), req.Text, req.LanguageCode, req.Speaker)
	switch {
	case errors.Is(err, core.ErrTextRequired):
		s.respondError(w, http.StatusBadRequest, "Text is required")
		return
	case err != nil:
		logging.Error("tts generation failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "TTS Generation failed")
		return
	}

	if claims, ok := identity.ClaimsFrom(r.Context()); ok {
		go s.logUsage(claims.UserID, "tts", len(req.Text))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"audio": audio})
}

func chatTurnInput(userID string, req chatRequest) chat.TurnInput {
	return chat.TurnInput{
		UserID:            userID,
		Message:           req.Message,
		Persona:           req.Persona,
		Image:             req.Image,
		VisionDescription: req.VisionDescription,
	}
}

func (s *Server) logUsage(userID, usageType string, volume int) {
	if err := s.adminSvc.LogUsage(userID, usageType, volume, time.Now()); err != nil {
		logging.WithField("user", userID).Warn("failed to log %s usage: %v", usageType, err)
	}
}
