package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"finassist/internal/codegen"
	"finassist/internal/config"
	"finassist/internal/domain"
	"finassist/internal/engine"
	"finassist/internal/graph"
	"finassist/internal/llm"
	"finassist/internal/logger"
	"finassist/internal/source"
	"finassist/internal/store"
	"finassist/internal/synthesis"
)

func main() {
	log := logger.NewWithLevel("warn")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(log)
	case "ask":
		runAsk(log)
	case "batch":
		runBatch(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Financial Q&A CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  finassist <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat      Ask questions interactively")
	fmt.Println("  ask       Ask a single question")
	fmt.Println("  batch     Answer a file of questions, one per line")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'finassist <command> -h' for more information on a command.")
}

// commonFlags are shared by every command.
type commonFlags struct {
	configFile  *string
	secretsFile *string
	user        *string
	lang        *string
	country     *string
	currency    *string
	sourceKind  *string
	csvPath     *string
	verbose     *bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configFile:  fs.String("config", "config.yaml", "Path to the YAML config file"),
		secretsFile: fs.String("secrets", "secrets.ejson", "Path to the ejson secrets file"),
		user:        fs.String("user", "", "Account ID questions are scoped to (required)"),
		lang:        fs.String("lang", "ENG", "Answer language: ENG, RUS or GEO"),
		country:     fs.String("country", "USA", "User country"),
		currency:    fs.String("currency", "USD", "Display currency"),
		sourceKind:  fs.String("source", "", "Transaction source kind (overrides config)"),
		csvPath:     fs.String("csv", "", "CSV file with transactions (overrides config)"),
		verbose:     fs.Bool("verbose", false, "Print plan explanations and debug logs"),
	}
}

// appRuntime is the wiring shared by every command: loaded transactions, the
// engine and the locale/user scope answers run under.
type appRuntime struct {
	engine       *engine.Engine
	transactions []domain.Transaction
	locale       domain.UserLocale
	user         string
	verbose      bool
	log          zerolog.Logger
	close        func()
}

func (rt *appRuntime) answer(ctx context.Context, question string) engine.Result {
	ctx = logger.WithContext(ctx, rt.log)
	return rt.engine.Answer(ctx, engine.TurnRequest{
		Question:     question,
		Transactions: rt.transactions,
		Locale:       rt.locale,
		UserID:       rt.user,
	})
}

// setup reads the config, builds the engine and loads the transactions.
// Failures are fatal; commands have nothing to do without a runtime.
func setup(ctx context.Context, flags *commonFlags, log zerolog.Logger) *appRuntime {
	if *flags.verbose {
		log = logger.NewWithLevel("debug")
	}

	if *flags.user == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	if err := config.ReadConfig("FINASSIST_CONFIG", *flags.configFile, *flags.secretsFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to read config")
	}
	cfg := config.CurrentConfig()
	secrets := config.CurrentSecrets()

	if *flags.csvPath != "" {
		cfg.Source.Kind = "csv"
		cfg.Source.CSVPath = *flags.csvPath
	}
	if *flags.sourceKind != "" {
		cfg.Source.Kind = *flags.sourceKind
	}

	modelClient, err := buildModelClient(ctx, cfg, secrets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	closeRuntime := func() {}
	var graphAnswerer engine.GraphAnswerer
	if cfg.Graph.Enabled {
		runner, err := graph.NewNeo4jRunner(cfg.Graph.URI, secrets.Neo4jUser, secrets.Neo4jPassword, cfg.Graph.Database, cfg.Graph.Timeout())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to the graph database")
		}
		closeRuntime = func() { runner.Close(ctx) }
		graphAnswerer = graph.New(modelClient, runner)
	}

	eng := engine.New(codegen.New(modelClient), synthesis.New(modelClient), graphAnswerer)

	src, err := buildSource(cfg, secrets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure transaction source")
	}

	rows, err := src.Rows(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}
	st, err := store.Load(rows)
	if err != nil {
		log.Fatal().Err(err).Msg("Transaction data failed validation")
	}

	return &appRuntime{
		engine:       eng,
		transactions: st.All(),
		locale: domain.UserLocale{
			Language: domain.NormalizeLanguage(*flags.lang),
			Country:  *flags.country,
			Currency: *flags.currency,
		},
		user:    *flags.user,
		verbose: *flags.verbose,
		log:     log,
		close:   closeRuntime,
	}
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	flags := registerCommon(fs)
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	rt := setup(ctx, flags, log)
	defer rt.close()

	fmt.Printf("Loaded %d transactions. Ask about your finances; empty line or Ctrl-D quits.\n", len(rt.transactions))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		printResult(rt.answer(ctx, question), rt.verbose)
	}
	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("Reading stdin failed")
	}
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	flags := registerCommon(fs)
	question := fs.String("q", "", "Question to ask")
	fs.Parse(os.Args[2:])

	if *question == "" {
		log.Fatal().Msg("Error: -q is required")
	}

	ctx := context.Background()
	rt := setup(ctx, flags, log)
	defer rt.close()

	printResult(rt.answer(ctx, *question), rt.verbose)
}

func runBatch(log zerolog.Logger) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	flags := registerCommon(fs)
	file := fs.String("file", "", "File with one question per line")
	concurrency := fs.Int("concurrency", 4, "How many questions run at once")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	ctx := context.Background()
	rt := setup(ctx, flags, log)
	defer rt.close()

	questions, err := readQuestions(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read questions")
	}
	if len(questions) == 0 {
		log.Fatal().Str("file", *file).Msg("No questions found")
	}

	results := make([]engine.Result, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for i, question := range questions {
		g.Go(func() error {
			results[i] = rt.answer(gctx, question)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Batch run failed")
	}

	for i, question := range questions {
		fmt.Printf("Q: %s\nA: %s\n", question, results[i].Answer)
		if rt.verbose && results[i].Explanation != "" {
			fmt.Printf("   (%s)\n", results[i].Explanation)
		}
		fmt.Println()
	}
}

// readQuestions loads one question per line, skipping blanks and # comments.
func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func printResult(res engine.Result, verbose bool) {
	fmt.Println(res.Answer)
	if verbose && res.Explanation != "" {
		fmt.Printf("  (%s)\n", res.Explanation)
	}
	if res.Chart != nil {
		printChart(res.Chart)
	}
}

func printChart(chart *domain.Chart) {
	fmt.Printf("\n=== %s (%s) ===\n", chart.Title, chart.Type)
	for _, p := range chart.Points {
		fmt.Printf("  %-24s %10.2f\n", p.Label, p.Value)
	}
	fmt.Println()
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
