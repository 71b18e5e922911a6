// Package chat runs the conversational turn pipeline: gate, remember,
// generate, respond, then persist in the background.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nyralabs/nira/internal/admin"
	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/llm"
	"github.com/nyralabs/nira/internal/logging"
	"github.com/nyralabs/nira/internal/memory"
	"github.com/nyralabs/nira/internal/persona"
	"github.com/nyralabs/nira/internal/storage"
	"github.com/nyralabs/nira/internal/vision"
)

// persistTimeout bounds the detached background save.
const persistTimeout = 30 * time.Second

// Publisher receives operational events for the admin dashboard.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Service orchestrates one conversational turn end to end.
type Service struct {
	limiter       *admin.Service
	assembler     *memory.Assembler
	router        *llm.Router
	extractor     *memory.FactExtractor
	profiles      *storage.ProfileStore
	emotions      *storage.EmotionStore
	conversations *storage.ConversationStore
	vision        *vision.Service // optional
	events        Publisher       // optional

	background sync.WaitGroup
}

// Deps wires the turn pipeline. vision, extractor and events may be nil.
type Deps struct {
	Limiter       *admin.Service
	Assembler     *memory.Assembler
	Router        *llm.Router
	Extractor     *memory.FactExtractor
	Profiles      *storage.ProfileStore
	Emotions      *storage.EmotionStore
	Conversations *storage.ConversationStore
	Vision        *vision.Service
	Events        Publisher
}

// NewService creates the chat service.
func NewService(deps Deps) *Service {
	return &Service{
		limiter:       deps.Limiter,
		assembler:     deps.Assembler,
		router:        deps.Router,
		extractor:     deps.Extractor,
		profiles:      deps.Profiles,
		emotions:      deps.Emotions,
		conversations: deps.Conversations,
		vision:        deps.Vision,
		events:        deps.Events,
	}
}

// TurnInput is one user message plus optional visual context.
type TurnInput struct {
	UserID            string
	Message           string
	Persona           string
	Image             string // base64 camera snapshot, optional
	VisionDescription string // client-side fallback description
	Now               time.Time
}

// TurnResult is the immediate reply. Limited marks a turn the limiter
// refused; Reply then carries the refusal message.
type TurnResult struct {
	Reply    string       `json:"response"`
	Provider string       `json:"provider,omitempty"`
	Persona  core.Persona `json:"persona"`
	Limited  bool         `json:"-"`
}

// Turn handles one chat message. The reply returns as soon as the
// model answers; persistence happens on a detached goroutine so a slow
// disk never delays the conversation.
func (s *Service) Turn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, core.ErrEmptyMessage
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	who := persona.Normalize(in.Persona)

	profile, err := s.profiles.GetByID(in.UserID)
	if err == nil && profile.IsSuspended {
		return nil, core.ErrUserSuspended
	}

	if decision := s.limiter.CheckLimits(in.UserID, in.Now); !decision.Allowed {
		logging.WithField("user", in.UserID).Info("turn refused: %s", decision.Reason)
		return &TurnResult{Reply: decision.Reason, Persona: who, Limited: true}, nil
	}

	bundle := s.assembler.Assemble(ctx, memory.AssembleInput{
		UserID:  in.UserID,
		Message: message,
		Persona: who,
		Vision:  s.visionFunc(in.Image),
		Now:     in.Now,
	})
	if bundle.VisionDescription == "" {
		bundle.VisionDescription = strings.TrimSpace(in.VisionDescription)
	}

	routed := s.router.Reply(ctx, message, bundle)
	reply := persona.Sanitize(routed.Text)

	s.background.Add(1)
	go s.persistTurn(in.UserID, message, reply, routed, bundle, in.Now)

	return &TurnResult{Reply: reply, Provider: routed.Provider, Persona: who}, nil
}

// visionFunc wraps the optional camera snapshot into an assembler
// fetch. Nil means no visual context this turn.
func (s *Service) visionFunc(image string) memory.VisionFunc {
	if image == "" || s.vision == nil || !s.vision.IsConfigured() {
		return nil
	}
	if cfg := s.limiter.Config(); cfg != nil && !cfg.Features.VisionEnabled {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		return s.vision.AnalyzeImage(ctx, image, "")
	}
}

// persistTurn saves everything a turn learned. It runs detached from
// the request and must never take the process down.
func (s *Service) persistTurn(userID, message, reply string, routed llm.RouteResult, bundle *core.MemoryBundle, now time.Time) {
	defer s.background.Done()
	defer func() {
		if r := recover(); r != nil {
			logging.WithField("user", userID).Error("turn persistence panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.conversations.AppendExchange(userID, message, reply); err != nil {
		logging.WithField("user", userID).Error("failed to save exchange: %v", err)
	}

	if name, ok := memory.ExtractName(message); ok {
		if set, err := s.profiles.SetNameIfEmpty(userID, name); err != nil {
			logging.WithField("user", userID).Warn("failed to save name: %v", err)
		} else if set {
			logging.WithFields(map[string]interface{}{"user": userID, "name": name}).Info("learned user's name")
		}
	}

	if err := s.emotions.Set(userID, memory.DeriveMood(message, now)); err != nil {
		logging.WithField("user", userID).Warn("failed to save emotional state: %v", err)
	}

	if s.extractor != nil && s.extractor.ShouldExtract(bundle.Stats.Interactions+1, message) {
		if _, err := s.extractor.Extract(ctx, userID, message); err != nil {
			logging.WithField("user", userID).Warn("fact extraction failed: %v", err)
		}
	}

	if err := s.limiter.LogUsage(userID, admin.UsageTypeChat, routed.Tokens, now); err != nil {
		logging.WithField("user", userID).Warn("failed to log usage: %v", err)
	}

	if s.events != nil {
		s.events.Publish("chat", map[string]interface{}{
			"user_id":  userID,
			"provider": routed.Provider,
		})
	}
}

// Flush blocks until all background persistence has finished. Shutdown
// and tests use it.
func (s *Service) Flush() {
	s.background.Wait()
}
