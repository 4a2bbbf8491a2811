package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/datavault-backend/internal/ingest/classify"
	"github.com/yungbote/datavault-backend/internal/ingest/document"
	"github.com/yungbote/datavault-backend/internal/ingest/extract"
	"github.com/yungbote/datavault-backend/internal/ingest/graph"
	"github.com/yungbote/datavault-backend/internal/ingest/orchestrator"
	"github.com/yungbote/datavault-backend/internal/platform/chromadb"
	"github.com/yungbote/datavault-backend/internal/platform/envutil"
	"github.com/yungbote/datavault-backend/internal/platform/gemini"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/platform/mongodb"
	"github.com/yungbote/datavault-backend/internal/platform/objectstore"
	"github.com/yungbote/datavault-backend/internal/platform/postgres"
	"github.com/yungbote/datavault-backend/internal/schema/attr"
	"github.com/yungbote/datavault-backend/internal/schema/catalog"
	"github.com/yungbote/datavault-backend/internal/schema/evolve"
	"github.com/yungbote/datavault-backend/internal/schema/sqlexec"
	"github.com/yungbote/datavault-backend/internal/types"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		fmt.Println("usage: datavault <file-or-directory> ...")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := orchestrator.Options{
		TenantID: envutil.String("DEFAULT_TENANT_ID", "tenant_default"),
		Log:      log,
	}

	// Postgres: optional, without it everything routes to documents
	log.Info("Loading environment variables from main...")
	pgCfg, err := postgres.ResolveConfigFromEnv()
	if err != nil {
		log.Fatal("Invalid postgres config", "error", err)
	}
	if db, err := postgres.Connect(pgCfg, log); err != nil {
		log.Warn("Postgres unavailable, relational route disabled", "error", err)
	} else {
		cat := catalog.New(db, log)
		if err := cat.Refresh(ctx); err != nil {
			log.Fatal("Catalog refresh failed", "error", err)
		}
		syn := attr.DefaultSynonyms()
		opts.Classifier = classify.New(log)
		opts.Executor = sqlexec.New(db, cat, log)
		opts.Engine = evolve.New(cat, syn, log)
		opts.Synonyms = syn
	}

	// Document store
	mongoCfg, err := mongodb.ResolveConfigFromEnv()
	if err != nil {
		log.Fatal("Invalid mongodb config", "error", err)
	}
	docs, err := mongodb.Connect(ctx, mongoCfg, log)
	if err != nil {
		log.Fatal("Could not init document store", "error", err)
	}
	opts.Documents = document.NewIngestor(docs, log)

	// Vector index
	chromaCfg, err := chromadb.ResolveConfigFromEnv()
	if err != nil {
		log.Fatal("Invalid chromadb config", "error", err)
	}
	index, err := chromadb.Open(chromaCfg, log)
	if err != nil {
		log.Warn("Vector index unavailable", "error", err)
		index = chromadb.Unavailable(log)
	}

	// Object store
	objects, err := objectstore.New(objectstore.ResolveConfigFromEnv(), log)
	if err != nil {
		log.Fatal("Could not init object store", "error", err)
	}
	opts.Objects = objects

	// Gemini planner + embedder
	gemCfg := gemini.ResolveConfigFromEnv()
	planner, err := gemini.NewPlanner(ctx, gemCfg, objects, log)
	if err != nil {
		log.Fatal("Could not init path planner", "error", err)
	}
	embedder, err := gemini.NewEmbedder(ctx, gemCfg, log)
	if err != nil {
		log.Fatal("Could not init embedder", "error", err)
	}
	opts.Planner = planner
	opts.Embedder = embedder
	opts.MoveFiles = gemCfg.MoveFiles
	opts.Graph = graph.NewWriter(index, embedder, log)
	opts.Extractor = extract.NewPlain(log)

	orch := orchestrator.New(opts)

	files, err := orchestrator.ExpandPaths(os.Args[1:])
	if err != nil {
		log.Fatal("Could not resolve inputs", "error", err)
	}
	concurrency := envutil.Int("INGEST_CONCURRENCY", 4)
	results := orch.ProcessBatch(ctx, files, concurrency)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for _, res := range results {
		if res.Status == types.StatusError {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			log.Error("Could not encode result", "error", err)
		}
	}
	log.Info("Ingestion finished", "files", len(results), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
