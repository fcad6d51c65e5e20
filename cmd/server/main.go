package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/conf"
	"github.com/quarkloom/sitesearch/internal/index"
	"github.com/quarkloom/sitesearch/internal/llm"
	"github.com/quarkloom/sitesearch/internal/pkg/cache"
	"github.com/quarkloom/sitesearch/internal/pkg/logger"
	"github.com/quarkloom/sitesearch/internal/search/biz"
	"github.com/quarkloom/sitesearch/internal/search/overview"
	"github.com/quarkloom/sitesearch/internal/search/ranker"
	"github.com/quarkloom/sitesearch/internal/search/service"
	"github.com/quarkloom/sitesearch/internal/search/types"
	"github.com/quarkloom/sitesearch/internal/search/understand"
	"github.com/quarkloom/sitesearch/internal/server"
)

var configFile = flag.String("config", "config.yaml", "config file path")

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(logConfig); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	// Index engine adapter
	engine, err := index.NewClient(&index.Config{
		BaseURL: config.Index.BaseURL,
		Index:   config.Index.Index,
		Timeout: config.Index.Timeout,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize index client", zap.Error(err))
	}

	// Language service adapter. Without an API key the pipeline runs in
	// degraded mode: keyword fallback, index order, no overviews.
	var llmClient llm.Client
	if config.LLM.APIKey != "" {
		client, err := llm.NewOpenAIClient(&llm.Config{
			APIKey:  config.LLM.APIKey,
			BaseURL: config.LLM.BaseURL,
			Model:   config.LLM.Model,
			Timeout: config.LLM.Timeout,
		}, log)
		if err != nil {
			log.Fatal("failed to initialize llm client", zap.Error(err))
		}
		llmClient = client
	} else {
		log.Warn("no llm api key configured, query enrichment disabled")
	}

	// Cache classes, one per purpose, constructed once and passed by
	// reference to the stages that need them.
	understandingCache := cache.New[*types.QueryIntent]("understanding", config.Cache.UnderstandingTTL)
	suggestionCache := cache.New[[]string]("suggestions", config.Cache.SuggestionTTL)
	overviewCache := cache.New[string]("overview", config.Cache.OverviewTTL)
	rankingCache := cache.New[[]string]("ranking", config.Cache.RankingTTL)

	sweeper := cache.NewSweeper(config.Cache.SweepInterval, log,
		understandingCache, suggestionCache, overviewCache, rankingCache)
	sweeper.Start()
	defer sweeper.Stop()

	// Pipeline stages
	understander := understand.New(llmClient, understandingCache, suggestionCache, config.Search.Categories, log)
	resultRanker := ranker.New(llmClient, rankingCache, log)
	overviewSynth := overview.New(llmClient, overviewCache, log)

	searchUseCase := biz.NewSearchUseCase(engine, understander, resultRanker, overviewSynth, &biz.Config{
		DefaultPageSize: config.Search.DefaultPageSize,
		MaxPageSize:     config.Search.MaxPageSize,
	}, log)

	searchService := service.NewSearchService(searchUseCase, understander, sweeper, log)

	httpServer := server.NewHTTPServer(config, log.Logger, searchService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
