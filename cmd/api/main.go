package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"

	"finassist/internal/api/handlers"
	"finassist/internal/api/middleware"
	"finassist/internal/codegen"
	"finassist/internal/config"
	"finassist/internal/engine"
	"finassist/internal/graph"
	"finassist/internal/llm"
	"finassist/internal/logger"
	"finassist/internal/session"
	"finassist/internal/source"
	"finassist/internal/synthesis"
	"finassist/internal/turns"
)

func main() {
	// Parse command-line flags
	var (
		configFile  = flag.String("config", "config.yaml", "Path to the YAML config file")
		secretsFile = flag.String("secrets", "secrets.ejson", "Path to the ejson secrets file")
		addr        = flag.String("addr", "", "Listen address (overrides config)")
	)
	flag.Parse()

	if err := config.ReadConfig("FINASSIST_CONFIG", *configFile, *secretsFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.CurrentConfig()
	secrets := config.CurrentSecrets()

	// Initialize logger
	log := logger.NewWithLevel(cfg.Log.Level)

	listenAddr := cfg.Server.Addr
	if *addr != "" {
		listenAddr = *addr
	}

	ctx := context.Background()

	// Build the model client and the two pipeline services on top of it
	modelClient, err := buildModelClient(ctx, cfg, secrets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	generator := codegen.New(modelClient)
	synthesizer := synthesis.New(modelClient)

	// Graph routing is optional; without it every question takes the
	// in-memory path
	var graphAnswerer engine.GraphAnswerer
	if cfg.Graph.Enabled {
		runner, err := graph.NewNeo4jRunner(cfg.Graph.URI, secrets.Neo4jUser, secrets.Neo4jPassword, cfg.Graph.Database, cfg.Graph.Timeout())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to the graph database")
		}
		defer runner.Close(ctx)

		graphAnswerer = graph.New(modelClient, runner)
		log.Info().Str("uri", cfg.Graph.URI).Msg("Graph routing enabled")
	}

	eng := engine.New(generator, synthesizer, graphAnswerer)

	src, err := buildSource(cfg, secrets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure transaction source")
	}

	// Initialize session and turn infrastructure
	sessions := session.NewStore()
	turnStore := turns.NewStore()
	turnQueue := turns.NewQueue(cfg.Server.TurnQueueSize, cfg.Server.TurnWorkers, turnStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Turn handler run by the queue workers. It holds the session's turn
	// lock, taken at enqueue time, and releases it when the turn settles.
	turnHandler := func(ctx context.Context, turn *turns.Turn) error {
		defer sessions.UnlockTurn(turn.SessionID)

		sess, err := sessions.Get(turn.SessionID)
		if err != nil {
			return fmt.Errorf("run turn %s: %w", turn.ID, err)
		}

		result := eng.Answer(ctx, engine.TurnRequest{
			Question:     turn.Question,
			Transactions: sess.Transactions,
			Locale:       sess.Locale,
			UserID:       turn.UserID,
		})
		turn.Result = &result
		return nil
	}

	log.Info().Int("workers", cfg.Server.TurnWorkers).Msg("Starting turn workers")
	if err := turnQueue.Start(workerCtx, turnHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start turn workers")
	}

	// Initialize handlers
	sessionsHandler := handlers.NewSessionsHandler(sessions, src, log)
	turnsHandler := handlers.NewTurnsHandler(sessions, eng, turnQueue, turnStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sessionsHandler.CreateSession(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		// Paths below /api/sessions/: {id}, {id}/ask, {id}/turns and
		// {id}/turns/{turnID}
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")

		switch {
		case len(parts) == 1 && parts[0] != "":
			if r.Method == http.MethodGet {
				sessionsHandler.GetSession(w, r, parts[0])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 2 && parts[0] != "" && parts[1] == "ask":
			if r.Method == http.MethodPost {
				turnsHandler.Ask(w, r, parts[0])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 2 && parts[0] != "" && parts[1] == "turns":
			if r.Method == http.MethodPost {
				turnsHandler.EnqueueTurn(w, r, parts[0])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 3 && parts[0] != "" && parts[1] == "turns" && parts[2] != "":
			if r.Method == http.MethodGet {
				turnsHandler.GetTurn(w, r, parts[0], parts[2])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(log)(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server. A synchronous ask waits on model calls, so the
	// write timeout leaves room for two of them plus slack.
	server := &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.Model.Timeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", listenAddr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop turn queue and wait for in-flight turns
	if err := turnQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping turn queue")
	}

	cancelWorker()

	log.Info().Msg("Server exited")
}

// buildModelClient creates the provider named by the config, wrapped with a
// per-call timeout and transport retries.
func buildModelClient(ctx context.Context, cfg *config.Config, secrets *config.Secrets) (llm.Client, error) {
	var client llm.Client

	switch cfg.Model.Provider {
	case "", "gemini":
		if secrets.GeminiAPIKey != "" {
			os.Setenv("GEMINI_API_KEY", secrets.GeminiAPIKey)
		}
		gemini, err := llm.NewGemini(ctx, cfg.Model.Model)
		if err != nil {
			return nil, err
		}
		client = gemini
	case "openai":
		client = llm.NewOpenAI(secrets.OpenAIAPIKey, cfg.Model.Model)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}

	client = llm.WithTimeout(client, cfg.Model.Timeout())
	client = llm.WithRetry(client, llm.DefaultRetryOptions())
	return client, nil
}

// buildSource picks the transaction source named by the config.
func buildSource(cfg *config.Config, secrets *config.Secrets) (source.Source, error) {
	switch cfg.Source.Kind {
	case "", "csv":
		return source.NewCSVFile(cfg.Source.CSVPath), nil
	case "gcs":
		if cfg.Source.GCSBucket == "" || cfg.Source.GCSObject == "" {
			return nil, fmt.Errorf("source gcs: gcsBucket and gcsObject are required")
		}
		return source.NewCSVGCS(cfg.Source.GCSBucket, cfg.Source.GCSObject), nil
	case "sqlite":
		if cfg.Source.SQLitePath == "" {
			return nil, fmt.Errorf("source sqlite: sqlitePath is required")
		}
		return source.NewSQLite(cfg.Source.SQLitePath, cfg.Source.SQLiteTable), nil
	case "postgres":
		if secrets.PostgresDSN == "" {
			return nil, fmt.Errorf("source postgres: POSTGRES_DSN secret is required")
		}
		return source.NewPostgres(secrets.PostgresDSN, cfg.Source.PostgresTable), nil
	case "bigquery":
		if cfg.Source.BigQueryProject == "" || cfg.Source.BigQueryTable == "" {
			return nil, fmt.Errorf("source bigquery: bigqueryProject and bigqueryTable are required")
		}
		var since civil.Date
		if cfg.Source.BigQuerySince != "" {
			parsed, err := civil.ParseDate(cfg.Source.BigQuerySince)
			if err != nil {
				return nil, fmt.Errorf("source bigquery: bad bigquerySince %q: %w", cfg.Source.BigQuerySince, err)
			}
			since = parsed
		}
		return source.NewBigQuery(cfg.Source.BigQueryProject, cfg.Source.BigQueryTable, since), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
