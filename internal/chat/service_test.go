package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nyralabs/nira/internal/admin"
	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/llm"
	"github.com/nyralabs/nira/internal/memory"
	"github.com/nyralabs/nira/internal/storage"
	"github.com/nyralabs/nira/internal/testutil"
)

func provider(name, reply string, err error) llm.Descriptor {
	return llm.Descriptor{Provider: &testutil.MockProvider{
		ProviderName: name,
		CompleteFunc: func(context.Context, llm.CompletionRequest) (string, error) {
			return reply, err
		},
	}}
}

type fixture struct {
	svc      *Service
	limiter  *admin.Service
	profiles *storage.ProfileStore
	emotions *storage.EmotionStore
	convs    *storage.ConversationStore

	mu     sync.Mutex
	events []string
}

func (f *fixture) publish(event string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fixture) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newFixture(t *testing.T, providers ...llm.Descriptor) *fixture {
	t.Helper()

	db := testutil.TestDB(t)

	profiles := storage.NewProfileStore(db)
	emotions := storage.NewEmotionStore(db)
	facts := storage.NewFactStore(db)
	conversations := storage.NewConversationStore(db)

	limiter, err := admin.NewService(storage.NewConfigStore(db), profiles, storage.NewUsageStore(db), nil)
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}

	if len(providers) == 0 {
		providers = []llm.Descriptor{provider("groq", "arre, kya baat hai!", nil)}
	}

	router := llm.NewRouter(llm.RouterConfig{
		Providers:    providers,
		ConfigSource: limiter.Config,
		Seed:         1,
	})

	f := &fixture{limiter: limiter, profiles: profiles, emotions: emotions, convs: conversations}
	f.svc = NewService(Deps{
		Limiter:       limiter,
		Assembler:     memory.NewAssembler(profiles, emotions, facts, conversations, nil),
		Router:        router,
		Profiles:      profiles,
		Emotions:      emotions,
		Conversations: conversations,
		Events:        &testutil.MockPublisher{PublishFunc: f.publish},
	})
	return f
}

func TestTurnHappyPath(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "hi nira"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Reply != "arre, kya baat hai!" || result.Provider != "groq" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Persona != core.PersonaNira {
		t.Errorf("persona should default to nira, got %v", result.Persona)
	}

	f.svc.Flush()

	turns, err := f.convs.Recent("u1", 15)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("exchange not persisted, got %d turns", len(turns))
	}
	if turns[0].Role != core.RoleModel || turns[1].Content != "hi nira" {
		t.Errorf("unexpected persisted turns: %+v", turns)
	}

	profile, err := f.profiles.GetByID("u1")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if profile.TotalInteractions != 1 {
		t.Errorf("interaction counter not advanced: %+v", profile)
	}

	if f.eventCount() != 1 {
		t.Errorf("expected one published event, got %d", f.eventCount())
	}
}

func TestTurnEmptyMessage(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "   "}); !errors.Is(err, core.ErrEmptyMessage) {
		t.Errorf("blank message should be rejected, got %v", err)
	}
}

func TestTurnSuspendedUser(t *testing.T) {
	f := newFixture(t)

	if err := f.profiles.SetSuspended("u1", true); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if _, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "hello?"}); !errors.Is(err, core.ErrUserSuspended) {
		t.Errorf("suspended user should be rejected, got %v", err)
	}
}

func TestTurnDailyLimit(t *testing.T) {
	f := newFixture(t)

	if _, err := f.limiter.UpdateConfig([]byte(`{"max_messages_per_user": 1}`)); err != nil {
		t.Fatalf("update config failed: %v", err)
	}

	first, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "first"})
	if err != nil || first.Limited {
		t.Fatalf("first turn should pass: (%+v, %v)", first, err)
	}
	f.svc.Flush()

	second, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "second"})
	if err != nil {
		t.Fatalf("limited turn should not error: %v", err)
	}
	if !second.Limited || second.Reply != admin.ReasonDailyLimit {
		t.Errorf("expected limit refusal, got %+v", second)
	}

	f.svc.Flush()
	turns, _ := f.convs.Recent("u1", 15)
	if len(turns) != 2 {
		t.Errorf("refused turn must not be persisted, got %d turns", len(turns))
	}
}

func TestTurnKillSwitch(t *testing.T) {
	f := newFixture(t)

	if _, err := f.limiter.Toggle("emergency.killSwitch", true); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	result, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "anyone there?"})
	if err != nil {
		t.Fatalf("turn errored: %v", err)
	}
	if !result.Limited || result.Reply != admin.ReasonMaintenance {
		t.Errorf("kill switch should refuse with maintenance message, got %+v", result)
	}
}

func TestTurnLearnsName(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "mera naam Rahul hai"}); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	f.svc.Flush()

	profile, err := f.profiles.GetByID("u1")
	if err != nil {
		t.Fatalf("profile missing: %v", err)
	}
	if profile.Name != "Rahul" {
		t.Errorf("name not learned: %+v", profile)
	}

	// A later introduction must not overwrite the stored name.
	if _, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "my name is Imposter"}); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	f.svc.Flush()

	profile, _ = f.profiles.GetByID("u1")
	if profile.Name != "Rahul" {
		t.Errorf("stored name was overwritten: %+v", profile)
	}
}

func TestTurnUpdatesMood(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "so much stress at work"}); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	f.svc.Flush()

	state, err := f.emotions.Get("u1")
	if err != nil {
		t.Fatalf("emotion lookup failed: %v", err)
	}
	if state.Mood != "stressed" {
		t.Errorf("mood not derived from message: %+v", state)
	}
}

func TestTurnSanitizesReply(t *testing.T) {
	f := newFixture(t, provider("groq", "As an AI, I think you did great!", nil))

	result, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "how did I do?"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if strings.Contains(strings.ToLower(result.Reply), "as an ai") {
		t.Errorf("robotic phrasing not sanitized: %q", result.Reply)
	}
	f.svc.Flush()
}

func TestTurnFallsBackToSecondProvider(t *testing.T) {
	f := newFixture(t,
		provider("groq", "", errors.New("rate limited")),
		provider("gemini", "main hoon na", nil),
	)

	result, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "hello"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Provider != "gemini" || result.Reply != "main hoon na" {
		t.Errorf("fallback not used: %+v", result)
	}
	f.svc.Flush()
}

func TestTurnCannedWhenAllProvidersFail(t *testing.T) {
	f := newFixture(t,
		provider("groq", "", errors.New("down")),
		provider("gemini", "", errors.New("down")),
	)

	result, err := f.svc.Turn(context.Background(), TurnInput{UserID: "u1", Message: "hello"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Reply == "" || result.Provider != llm.ProviderCanned {
		t.Errorf("expected a canned line, got %+v", result)
	}
	f.svc.Flush()
}

func TestTurnClientVisionFallback(t *testing.T) {
	f := newFixture(t, provider("groq", "looks tasty!", nil))

	result, err := f.svc.Turn(context.Background(), TurnInput{
		UserID:            "u1",
		Message:           "dinner time",
		VisionDescription: "a bowl of dal and rice",
		Now:               time.Now(),
	})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Reply != "looks tasty!" {
		t.Errorf("unexpected reply: %+v", result)
	}
	f.svc.Flush()
}
