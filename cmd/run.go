package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/sourcerer/internal/ai"
	"github.com/spigell/sourcerer/internal/ai/gemini"
	"github.com/spigell/sourcerer/internal/batch"
	"github.com/spigell/sourcerer/internal/cache"
	"github.com/spigell/sourcerer/internal/enrich"
	"github.com/spigell/sourcerer/internal/jobdesc"
	"github.com/spigell/sourcerer/internal/linkedin"
	"github.com/spigell/sourcerer/internal/logger"
	"github.com/spigell/sourcerer/internal/outreach"
	"github.com/spigell/sourcerer/internal/scoring"
	"github.com/spigell/sourcerer/internal/secrets"
	"github.com/spigell/sourcerer/internal/sourcing"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes      = "Yes"
	PromptNo       = "No"
	PromptShowJobs = "Show parsed jobs"
)

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo, PromptShowJobs},
}

var runCmd = &cobra.Command{
	Use:   "run <job-description-file> [more files...]",
	Short: "Source candidates for the given job descriptions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before processing jobs")
	runCmd.Flags().IntP("max-candidates", "m", 0, "max candidates per job (default from config or built-in)")
	runCmd.Flags().IntP("priority", "p", 0, "priority for all submitted jobs, higher runs first")
	runCmd.Flags().StringP("output", "o", "", "write the results json to a file instead of stdout")
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the sourcerer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	smartCache, err := openCache(config.Cache, logger)
	if err != nil {
		logger.Fatal("opening the cache", zap.Error(err))
	}
	defer smartCache.Close()

	jobs, err := loadJobs(cmd, args, smartCache)
	if err != nil {
		logger.Fatal("loading job descriptions", zap.Error(err))
	}

	if !confirmed(cmd, jobs, logger) {
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return
	}

	agent := buildAgent(ctx, config, smartCache, logger)

	pool := batch.NewPool(ctx, agent, config.Batch, logger)

	for _, job := range jobs {
		if !pool.Submit(job) {
			logger.Warn("job rejected, queue is full", zap.String("job_id", job.JobID))
		}
	}

	if err := pool.Start(); err != nil {
		logger.Fatal("starting the worker pool", zap.Error(err))
	}

	if err := pool.WaitForCompletion(ctx); err != nil {
		logger.Fatal("waiting for jobs", zap.Error(err))
	}

	pool.Shutdown()

	stats := pool.Stats()
	logger.Info("all jobs finished",
		zap.Int64("submitted", stats.Submitted),
		zap.Int64("completed", stats.Completed),
		zap.Int64("failed", stats.Failed),
		zap.Duration("average_processing", stats.AverageProcessing),
	)

	if err := writeResults(cmd, pool.GetAllResults()); err != nil {
		logger.Fatal("writing results", zap.Error(err))
	}
}

// loadJobs parses each argument file into a job request, keeping the parsed
// analysis cached by content hash so repeated runs over the same description
// reuse it. Flags override the parsed defaults for every job.
func loadJobs(cmd *cobra.Command, args []string, smartCache *cache.SmartCache) ([]*sourcing.JobRequest, error) {
	maxCandidates, _ := cmd.Flags().GetInt("max-candidates")
	priority, _ := cmd.Flags().GetInt("priority")

	jobs := make([]*sourcing.JobRequest, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		key := jobKey(data)
		var parsed jobdesc.Job
		if !smartCache.Get(cache.CategoryJobAnalysis, key, &parsed) {
			parsed = *jobdesc.Parse(string(data))
			smartCache.Set(cache.CategoryJobAnalysis, key, parsed)
		}
		if parsed.Description == "" {
			return nil, fmt.Errorf("file %q contains no job description", path)
		}

		jobs = append(jobs, &sourcing.JobRequest{
			JobID:          uuid.NewString(),
			JobDescription: parsed.Description,
			CompanyName:    parsed.Company,
			PositionTitle:  parsed.Title,
			Location:       parsed.Location,
			MaxCandidates:  maxCandidates,
			Priority:       priority,
		})
	}

	return jobs, nil
}

// jobKey identifies a job description by its content, not its file name.
func jobKey(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func confirmed(cmd *cobra.Command, jobs []*sourcing.JobRequest, logger *zap.Logger) bool {
	logger.Info("jobs to process", zap.Int("count", len(jobs)))

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return true
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		switch action {
		case PromptYes:
			return true
		case PromptNo:
			return false
		case PromptShowJobs:
			pretty, _ := json.MarshalIndent(jobs, "", "  ")
			fmt.Println(string(pretty))
		}
	}
}

// openCache picks the store from the config: a sqlite file when a path is
// set, an in-memory map otherwise.
func openCache(cfg *cache.Config, logger *zap.Logger) (*cache.SmartCache, error) {
	var store cache.Store

	if cfg != nil && cfg.Path != "" {
		var err error
		store, err = cache.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite cache", zap.String("path", cfg.Path))
	} else {
		store = cache.NewMemoryStore()
		logger.Info("using in-memory cache")
	}

	return cache.New(store, cfg, logger), nil
}

func buildAgent(ctx context.Context, config *Config, smartCache *cache.SmartCache, logger *zap.Logger) *sourcing.Agent {
	searcher := linkedin.New(logger)
	enricher := enrich.NewCollector(smartCache, logger)
	scorer := scoring.New(config.Scoring, logger)

	var generator ai.Generator
	if config.AI != nil && config.AI.Enabled {
		gen, err := newAIGenerator(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("ai generation disabled, falling back to message templates", zap.Error(err))
		} else {
			generator = gen
		}
	}

	messages := outreach.NewGenerator(generator, config.Outreach, logger)

	return sourcing.NewAgent(config.Pipeline, &sourcing.AgentDeps{
		Searcher: searcher,
		Enricher: enricher,
		Scorer:   scorer,
		Messages: messages,
		Cache:    smartCache,
		Logger:   logger,
	})
}

func newAIGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
}

func writeResults(cmd *cobra.Command, results []*sourcing.JobResult) error {
	pretty, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Println(string(pretty))
		return nil
	}

	return os.WriteFile(output, append(pretty, '\n'), 0o600)
}
