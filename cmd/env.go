package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/civiclens/enrich-cli/internal/billmeta"
	"github.com/civiclens/enrich-cli/internal/blob"
	"github.com/civiclens/enrich-cli/internal/corpus"
	"github.com/civiclens/enrich-cli/internal/fusion"
	"github.com/civiclens/enrich-cli/internal/pipeline"
	"github.com/civiclens/enrich-cli/internal/resolver"
	"github.com/civiclens/enrich-cli/internal/scoring"
	"github.com/civiclens/enrich-cli/internal/store"
	"github.com/civiclens/enrich-cli/internal/summary"
	anthropicpkg "github.com/civiclens/enrich-cli/pkg/anthropic"
	"github.com/civiclens/enrich-cli/pkg/jina"
	"github.com/civiclens/enrich-cli/pkg/tavily"
	"github.com/civiclens/enrich-cli/pkg/wikipedia"
)

// pipelineEnv holds the initialized store, corpus, and pipeline needed by
// the enrich and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Corpus   *corpus.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func initBucket(ctx context.Context) (blob.Bucket, error) {
	switch cfg.Blob.Driver {
	case "gcs":
		return blob.NewGCS(ctx, cfg.Blob.Bucket)
	case "fs", "":
		return blob.NewFS(cfg.Blob.Dir)
	default:
		return nil, eris.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}

// initPipeline sets up the store, blob bucket, all API clients, and builds
// the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	bucket, err := initBucket(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	corpusStore := corpus.New(bucket)

	wikiOpts := []wikipedia.Option{wikipedia.WithBaseURL(cfg.Wikipedia.BaseURL)}
	if cfg.Wikipedia.RateRPS > 0 {
		wikiOpts = append(wikiOpts, wikipedia.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.Wikipedia.RateRPS), 1)))
	}
	wikiClient := wikipedia.NewClient(wikiOpts...)

	tavilyClient := tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))
	jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))

	llmOpts := []anthropicpkg.Option{}
	if cfg.Anthropic.Model != "" {
		llmOpts = append(llmOpts, anthropicpkg.WithModel(cfg.Anthropic.Model))
	}
	if cfg.Anthropic.JSONTimeoutSecs > 0 {
		llmOpts = append(llmOpts, anthropicpkg.WithJSONTimeout(time.Duration(cfg.Anthropic.JSONTimeoutSecs)*time.Second))
	}
	llm := anthropicpkg.NewClient(cfg.Anthropic.Key, llmOpts...)

	web := resolver.NewWebExtractor(tavilyClient, jinaClient)
	people := resolver.NewPersonResolver(wikiClient, tavilyClient, web, corpusStore)
	bills := resolver.NewLegislationResolver(tavilyClient, web)

	var digest summary.Summarizer
	if cfg.Summary.Enabled {
		digest = summary.New(llm, summary.WithTolerance(cfg.Summary.ToleranceWords))
	}

	p := pipeline.New(
		st,
		corpusStore,
		people,
		bills,
		fusion.NewExtractor(llm),
		scoring.New(),
		billmeta.NewResolver(llm),
		digest,
	)

	return &pipelineEnv{Store: st, Corpus: corpusStore, Pipeline: p}, nil
}
