package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/hopgraph/hopgraph/internal/experiments"
	"github.com/hopgraph/hopgraph/internal/util"
	"github.com/hopgraph/hopgraph/pkg/ai"
	oai "github.com/hopgraph/hopgraph/pkg/ai/ollama"
	gai "github.com/hopgraph/hopgraph/pkg/ai/openai"
	"github.com/hopgraph/hopgraph/pkg/augment"
	"github.com/hopgraph/hopgraph/pkg/graph"
	"github.com/hopgraph/hopgraph/pkg/inspect"
	"github.com/hopgraph/hopgraph/pkg/loader"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/logger/console"
	"github.com/hopgraph/hopgraph/pkg/query"
	"github.com/hopgraph/hopgraph/pkg/store"
	storepgx "github.com/hopgraph/hopgraph/pkg/store/pgx"
)

const usage = `Usage: hopgraph <command> [flags]

Commands:
  build     ingest a corpus into a dataset's knowledge graph
  query     answer a question against a dataset
  inspect   report graph quality for a dataset
  augment   run graph augmentation passes on a dataset
  ablate    run retrieval or indexing ablation grids
  clean     delete a dataset (or everything)

Run 'hopgraph <command> -h' for command flags.
`

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(ctx, os.Args[2:])
	case "query":
		err = runQuery(ctx, os.Args[2:])
	case "inspect":
		err = runInspect(ctx, os.Args[2:])
	case "augment":
		err = runAugment(ctx, os.Args[2:])
	case "ablate":
		err = runAblate(ctx, os.Args[2:])
	case "clean":
		err = runClean(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Fatal("Command failed", "command", os.Args[1], "err", err)
	}
}

// newAIClient builds the configured model adapter. AI_ADAPTER=ollama selects
// the Ollama backend, anything else uses OpenAI-compatible endpoints.
func newAIClient() (ai.GraphAIClient, error) {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		return oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:       util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),
		})
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:       util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
		}), nil
	}
}

// newStorage connects to Postgres, registers pgvector types on every
// connection, and applies pending migrations.
func newStorage(ctx context.Context) (store.GraphStorage, func(), error) {
	databaseURL := util.GetEnv("DATABASE_URL")
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	storage := storepgx.NewGraphDBStorageWithConnection(pool, databaseURL)
	if err := storage.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, pool.Close, nil
}

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	dataset := fs.String("dataset", "", "dataset identifier")
	source := fs.String("source", "", "corpus source: file path, http(s) URL, or s3:// URI")
	window := fs.Int("window", 0, "segment window in runes (default 1024)")
	overlap := fs.Int("overlap", 0, "segment overlap in runes (default 128)")
	language := fs.String("language", util.GetEnvString("GRAPH_LANGUAGE", "english"), "extraction language")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" || *source == "" {
		return fmt.Errorf("build requires -dataset and -source")
	}

	text, err := loader.Load(ctx, *source)
	if err != nil {
		return err
	}

	aiClient, err := newAIClient()
	if err != nil {
		return err
	}
	storage, closeStorage, err := newStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	builder := graph.NewGraphBuilder(graph.NewGraphBuilderParams{
		Store:           storage,
		AI:              aiClient,
		Language:        *language,
		ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),
		SegmentWindow:   *window,
		SegmentOverlap:  *overlap,
	})

	result, err := builder.Build(ctx, *dataset, *source, text)
	if err != nil {
		return err
	}

	metrics := aiClient.GetMetrics()
	logger.Info("[Build] Finished",
		"dataset", *dataset,
		"chunks", result.ChunksTotal,
		"skipped", result.ChunksSkipped,
		"failed", result.ChunksFailed,
		"triples", result.TriplesMerged,
		"empty", len(result.EmptyChunks),
		"entities_created", result.Stats.EntitiesCreated,
		"relations_created", result.Stats.RelationsCreated,
		"total_tokens", metrics.TotalTokens,
	)
	for _, id := range result.EmptyChunks {
		logger.Warn("[Build] Chunk produced no triples", "chunk", id)
	}
	return nil
}

func runQuery(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	dataset := fs.String("dataset", "", "dataset identifier")
	question := fs.String("question", "", "question to answer")
	hops := fs.Int("hops", 1, "retrieval hop depth (0-3)")
	topK := fs.Int("top-k", 5, "number of chunks to retrieve")
	language := fs.String("language", util.GetEnvString("GRAPH_LANGUAGE", "english"), "answer language")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" || *question == "" {
		return fmt.Errorf("query requires -dataset and -question")
	}

	aiClient, err := newAIClient()
	if err != nil {
		return err
	}
	storage, closeStorage, err := newStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	engine := query.NewRetrievalEngine(query.NewRetrievalEngineParams{
		Store:    storage,
		AI:       aiClient,
		Language: *language,
	})

	result, err := engine.Answer(ctx, *dataset, *question, *hops, *topK)
	if err != nil {
		return err
	}

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	fmt.Println(result.Answer)
	return nil
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataset := fs.String("dataset", "", "dataset identifier")
	asJSON := fs.Bool("json", false, "print the full report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return fmt.Errorf("inspect requires -dataset")
	}

	storage, closeStorage, err := newStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	report, err := inspect.NewInspector(storage).Inspect(ctx, *dataset)
	if err != nil {
		return err
	}

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	fmt.Printf("dataset    %s\n", report.Dataset)
	fmt.Printf("chunks     %d\n", report.Chunks)
	fmt.Printf("entities   %d\n", report.Entities)
	fmt.Printf("relations  %d\n", report.Relations)
	fmt.Printf("mentions   %d\n", report.Mentions)
	fmt.Printf("density    %.2f (avg degree %.2f, %d relation types)\n",
		report.EffectiveDensity, report.AvgDegree, report.RelationTypes)
	fmt.Printf("degrees    isolated=%d low=%d mid=%d high=%d\n",
		report.Buckets.Isolated, report.Buckets.Low, report.Buckets.Mid, report.Buckets.High)
	for _, issue := range report.Issues {
		fmt.Printf("issue      %s\n", issue)
	}
	fmt.Printf("grade      %s (score %d/7)\n", report.Grade, report.Score)
	return nil
}

func runAugment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("augment", flag.ExitOnError)
	dataset := fs.String("dataset", "", "dataset identifier")
	synonyms := fs.Bool("synonyms", false, "merge synonym entities")
	weakLinks := fs.Bool("weak-links", false, "infer relations for weakly connected entities")
	connectivity := fs.Bool("connectivity", false, "infer additional relations per chunk")
	prune := fs.Bool("prune", false, "delete isolated entities")
	fix := fs.Bool("fix", false, "delete malformed relations and entities")
	workers := fs.Int("workers", 0, "concurrent inference workers (default 2)")
	language := fs.String("language", util.GetEnvString("GRAPH_LANGUAGE", "english"), "inference language")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return fmt.Errorf("augment requires -dataset")
	}

	// No pass selected means run the full pipeline.
	all := !*synonyms && !*weakLinks && !*connectivity && !*prune && !*fix

	aiClient, err := newAIClient()
	if err != nil {
		return err
	}
	storage, closeStorage, err := newStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	augmenter := augment.NewAugmenter(augment.NewAugmenterParams{
		Store:    storage,
		AI:       aiClient,
		Language: *language,
		Workers:  *workers,
	})

	if all || *fix {
		relations, entities, err := augmenter.FixQualityIssues(ctx, *dataset)
		if err != nil {
			return err
		}
		logger.Info("[Augment] Quality fixes applied", "relations", relations, "entities", entities)
	}
	if all || *synonyms {
		merged, err := augmenter.MergeSynonymEntities(ctx, *dataset)
		if err != nil {
			return err
		}
		logger.Info("[Augment] Synonyms merged", "entities", merged)
	}
	if all || *weakLinks {
		inferred, err := augmenter.InferWeakLinks(ctx, *dataset)
		if err != nil {
			return err
		}
		logger.Info("[Augment] Weak links inferred", "relations", inferred)
	}
	if all || *connectivity {
		inferred, err := augmenter.EnhanceConnectivity(ctx, *dataset)
		if err != nil {
			return err
		}
		logger.Info("[Augment] Connectivity enhanced", "relations", inferred)
	}
	if all || *prune {
		removed, err := augmenter.PruneIsolated(ctx, *dataset)
		if err != nil {
			return err
		}
		logger.Info("[Augment] Isolated entities pruned", "entities", removed)
	}
	return nil
}

func runAblate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ablate", flag.ExitOnError)
	mode := fs.String("mode", "retrieval", "ablation mode: retrieval or indexing")
	dataset := fs.String("dataset", "", "dataset identifier")
	questionsPath := fs.String("questions", "", "question set CSV (retrieval mode)")
	hops := fs.String("hops", "", "comma-separated hop depths (default 0,1,2,3)")
	topKs := fs.String("top-k", "", "comma-separated top-k values (default 5,10,15)")
	source := fs.String("source", "", "corpus source (indexing mode)")
	out := fs.String("out", "results", "output directory")
	language := fs.String("language", util.GetEnvString("GRAPH_LANGUAGE", "english"), "model language")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return fmt.Errorf("ablate requires -dataset")
	}

	aiClient, err := newAIClient()
	if err != nil {
		return err
	}
	storage, closeStorage, err := newStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	switch *mode {
	case "retrieval":
		if *questionsPath == "" {
			return fmt.Errorf("retrieval ablation requires -questions")
		}
		questions, err := experiments.LoadQuestions(*questionsPath)
		if err != nil {
			return err
		}
		hopDepths, err := parseIntList(*hops)
		if err != nil {
			return fmt.Errorf("invalid -hops: %w", err)
		}
		widths, err := parseIntList(*topKs)
		if err != nil {
			return fmt.Errorf("invalid -top-k: %w", err)
		}

		ablation := experiments.NewRetrievalAblation(experiments.NewRetrievalAblationParams{
			Store:    storage,
			AI:       aiClient,
			Language: *language,
		})
		cells, records, err := ablation.Run(ctx, *dataset, questions, hopDepths, widths)
		if err != nil {
			return err
		}

		cellPath, err := experiments.ExportCells(*out, cells)
		if err != nil {
			return err
		}
		recordPath, err := experiments.ExportAnswers(*out, records)
		if err != nil {
			return err
		}
		logger.Info("[Ablation] Results written", "cells", cellPath, "answers", recordPath)
		return nil

	case "indexing":
		if *source == "" {
			return fmt.Errorf("indexing ablation requires -source")
		}
		text, err := loader.Load(ctx, *source)
		if err != nil {
			return err
		}

		ablation := experiments.NewIndexingAblation(experiments.NewIndexingAblationParams{
			Store:           storage,
			AI:              aiClient,
			Language:        *language,
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),
		})
		results, err := ablation.Run(ctx, *dataset, *source, text, nil)
		if err != nil {
			return err
		}

		path, err := experiments.ExportIndexing(*out, results)
		if err != nil {
			return err
		}
		logger.Info("[Ablation] Results written", "path", path)
		return nil

	default:
		return fmt.Errorf("unknown ablation mode %q", *mode)
	}
}

func runClean(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	dataset := fs.String("dataset", "", "dataset identifier")
	all := fs.Bool("all", false, "delete every dataset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" && !*all {
		return fmt.Errorf("clean requires -dataset or -all")
	}

	storage, closeStorage, err := newStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	if *all {
		return storage.CleanAll(ctx)
	}
	return storage.CleanDataset(ctx, *dataset)
}

func parseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
