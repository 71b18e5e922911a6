// NIRA Daemon - the conversational companion backend
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyralabs/nira/internal/admin"
	"github.com/nyralabs/nira/internal/api"
	"github.com/nyralabs/nira/internal/chat"
	"github.com/nyralabs/nira/internal/config"
	"github.com/nyralabs/nira/internal/embeddings"
	"github.com/nyralabs/nira/internal/identity"
	"github.com/nyralabs/nira/internal/llm"
	"github.com/nyralabs/nira/internal/memory"
	"github.com/nyralabs/nira/internal/storage"
	"github.com/nyralabs/nira/internal/tts"
	"github.com/nyralabs/nira/internal/vectors"
	"github.com/nyralabs/nira/internal/vision"
)

var (
	dataDir string
	port    int
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "nira",
		Short: "NIRA Daemon - Your AI companion's backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.DataDir = dataDir
			cfg.Port = port
			return runDaemon(cfg)
		},
	}

	rootCmd.Flags().StringVar(&dataDir, "data-dir", cfg.DataDir, "Data directory")
	rootCmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cfg *config.Config) error {
	fmt.Println("🚀 Starting NIRA Daemon...")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// Open database
	db, err := storage.Open(storage.Config{Path: filepath.Join(cfg.DataDir, "nira.db")})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	profiles := storage.NewProfileStore(db)
	emotions := storage.NewEmotionStore(db)
	facts := storage.NewFactStore(db)
	conversations := storage.NewConversationStore(db)

	// Admin service owns the runtime config snapshot
	adminSvc, err := admin.NewService(storage.NewConfigStore(db), profiles, storage.NewUsageStore(db), cfg.AdminEmails)
	if err != nil {
		return fmt.Errorf("failed to start admin service: %w", err)
	}

	// LLM providers
	groq := llm.NewGroqClient(llm.GroqConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Timeout: cfg.ProviderTimeout,
	})
	gemini := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.GeminiBaseURL,
		EnableSearch: true,
		Timeout:      cfg.ProviderTimeout,
	})
	if groq.IsConfigured() {
		fmt.Println("✅ Groq configured")
	} else {
		fmt.Println("⚠️  GROQ_API_KEY not set - primary model unavailable")
	}
	if gemini.IsConfigured() {
		fmt.Println("✅ Gemini configured")
	} else {
		fmt.Println("⚠️  GEMINI_API_KEY not set - fallback, vision and recall unavailable")
	}

	router := llm.NewRouter(llm.RouterConfig{
		Providers: []llm.Descriptor{
			{Provider: groq},
			{Provider: gemini, SupportsSearch: true},
		},
		ConfigSource: adminSvc.Config,
	})

	// Semantic recall is optional: it needs both Qdrant and Gemini.
	var recall memory.Recaller
	embedder := embeddings.NewService(embeddings.Config{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.ProviderTimeout,
	})
	if cfg.QdrantHost != "" && embedder.IsConfigured() {
		vectorStore, err := vectors.NewStore(vectors.Config{Host: cfg.QdrantHost, Port: cfg.QdrantPort})
		if err != nil {
			fmt.Printf("⚠️  Qdrant not available: %v\n", err)
			fmt.Println("   Semantic fact recall disabled")
		} else {
			defer vectorStore.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := vectorStore.EnsureSchema(ctx, embedder.Dimension()); err != nil {
				fmt.Printf("⚠️  Qdrant schema setup failed: %v\n", err)
			} else {
				recall = memory.NewRecall(embedder, vectorStore)
				fmt.Println("✅ Qdrant connected")
			}
			cancel()
		}
	}

	assembler := memory.NewAssembler(profiles, emotions, facts, conversations, recall)
	extractor := memory.NewFactExtractor(groq, facts, recall)

	// Optional media services
	visionSvc := vision.NewService(gemini)
	speaker := tts.NewSarvamClient(tts.SarvamConfig{APIKey: cfg.SarvamAPIKey, BaseURL: cfg.SarvamBaseURL})
	if speaker.IsConfigured() {
		fmt.Println("✅ Sarvam TTS configured")
	}

	// The hub is created up front so chat can publish dashboard events.
	hub := api.NewEventHub()

	chatSvc := chat.NewService(chat.Deps{
		Limiter:       adminSvc,
		Assembler:     assembler,
		Router:        router,
		Extractor:     extractor,
		Profiles:      profiles,
		Emotions:      emotions,
		Conversations: conversations,
		Vision:        visionSvc,
		Events:        hub,
	})

	server := api.New(api.Config{
		Port:              cfg.Port,
		AllowedOrigins:    cfg.AllowedOrigins,
		Verifier:          identity.NewGoogleVerifier(cfg.GoogleAudience),
		Chat:              chatSvc,
		Admin:             adminSvc,
		Vision:            visionSvc,
		TTS:               speaker,
		Hub:               hub,
		OpsPassphraseHash: cfg.OpsPassphraseHash,
	})

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\n🛑 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		server.Stop(ctx)
		chatSvc.Flush()
	}()

	// Start server (blocks)
	fmt.Printf("🌐 NIRA listening on port %d\n", cfg.Port)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
