package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/database"
	"github.com/kozaktomas/stock-metadata/internal/generator"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
	"github.com/kozaktomas/stock-metadata/internal/logging"
	"github.com/kozaktomas/stock-metadata/internal/stockcsv"
	"github.com/kozaktomas/stock-metadata/internal/title"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a metadata CSV",
	Long: `Generate a stock metadata CSV for a batch of photos.
Each row gets a filename (custom-01.jpg, custom-02.jpg, ...), a title, a rotated
keyword list, the category and Releases=no.

Examples:
  # 100 rows with template titles
  stock-metadata generate --subject "Asian businessman" --keywords "office, laptop, success"

  # Keyword stuffed titles, shuffling the whole pool
  stock-metadata generate --subject "Asian businessman" --keywords-file kw.txt --strategy stuffer --mode C

  # AI titles from Gemini, reproducible keyword order
  stock-metadata generate --subject "Asian businessman" --keywords-file kw.txt --strategy ai --provider gemini --seed 42`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("subject", "", "Photo subject used as the title seed (max 100 characters)")
	generateCmd.Flags().String("keywords", "", "Comma separated keyword pool")
	generateCmd.Flags().String("keywords-file", "", "Read the keyword pool from a file (commas or newlines)")
	generateCmd.Flags().String("category", constants.DefaultCategory, "Category label, id or name (see 'categories')")
	generateCmd.Flags().String("vocabulary", "", "YAML file overriding the title vocabulary (default from VOCABULARY_FILE)")
	generateCmd.Flags().String("mode", "A", "Keyword rotation mode: A (shuffle head), B (shuffle tail), C (shuffle all)")
	generateCmd.Flags().String("strategy", "natural", "Title strategy: natural, stuffer, connector, ai")
	generateCmd.Flags().String("ai-shape", "natural", "Prompt shape for the ai strategy: natural or stuffer")
	generateCmd.Flags().String("tier", "cheap", "Model tier for the ai strategy: cheap or premium")
	generateCmd.Flags().String("provider", "", "AI provider: openai, gemini, ollama, llamacpp (default from AI_PROVIDER)")
	generateCmd.Flags().String("connector", "", "Connector word for the connector strategy (default random)")
	generateCmd.Flags().Int("rows", constants.DefaultRows, "Number of rows to generate (1-100)")
	generateCmd.Flags().Uint64("seed", 0, "Random seed for reproducible output (0 = random)")
	generateCmd.Flags().Int("head-size", 0, "Rotation head size (default from ROTATION_HEAD_SIZE)")
	generateCmd.Flags().Int("budget", 0, "Stuffer title budget in characters (default from STUFFER_BUDGET)")
	generateCmd.Flags().Int("stride", 0, "Stuffer connector stride (default from CONNECTOR_STRIDE)")
	generateCmd.Flags().String("output", "", "Output CSV path (default generated_metadata_<rows>.csv)")
	generateCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of rows built in parallel")
	generateCmd.Flags().Bool("quiet", false, "Hide the progress bar and the preview")
}

// readKeywordPool merges the --keywords value with the contents of the
// --keywords-file, newlines counting as separators.
func readKeywordPool(raw, path string) (keywords.Pool, error) {
	parts := []string{raw}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read keywords file: %w", err)
		}
		parts = append(parts, strings.NewReplacer("\r\n", ",", "\n", ",").Replace(string(data)))
	}
	return keywords.Clean(strings.Join(parts, ",")), nil
}

// loadVocabulary returns the vocabulary from path, falling back to the
// configured file and then the embedded default.
func loadVocabulary(path string, cfg *config.Config) (*title.Vocabulary, error) {
	if path == "" {
		path = cfg.Generation.VocabularyFile
	}
	if path == "" {
		return title.DefaultVocabulary(), nil
	}
	vocab, err := title.LoadVocabulary(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}
	return vocab, nil
}

// generationConfigFromFlags reads the generation flags into a config.
// Zero tunables fall back to the environment configuration.
func generationConfigFromFlags(cmd *cobra.Command, cfg *config.Config) (generator.GenerationConfig, error) {
	pool, err := readKeywordPool(mustGetString(cmd, "keywords"), mustGetString(cmd, "keywords-file"))
	if err != nil {
		return generator.GenerationConfig{}, err
	}

	gc := generator.GenerationConfig{
		Subject:         mustGetString(cmd, "subject"),
		Keywords:        pool,
		Category:        mustGetString(cmd, "category"),
		Connector:       mustGetString(cmd, "connector"),
		Rows:            mustGetInt(cmd, "rows"),
		Seed:            mustGetUint64(cmd, "seed"),
		HeadSize:        mustGetInt(cmd, "head-size"),
		StufferBudget:   mustGetInt(cmd, "budget"),
		ConnectorStride: mustGetInt(cmd, "stride"),
		Concurrency:     mustGetInt(cmd, "concurrency"),
		AIConcurrency:   cfg.AI.Concurrency,
	}
	if gc.HeadSize == 0 {
		gc.HeadSize = cfg.Generation.HeadSize
	}
	if gc.StufferBudget == 0 {
		gc.StufferBudget = cfg.Generation.StufferBudget
	}
	if gc.ConnectorStride == 0 {
		gc.ConnectorStride = cfg.Generation.ConnectorStride
	}

	if gc.Mode, err = keywords.ParseRotationMode(mustGetString(cmd, "mode")); err != nil {
		return gc, err
	}
	if gc.Strategy, err = title.ParseStrategy(mustGetString(cmd, "strategy")); err != nil {
		return gc, err
	}
	if gc.AIShape, err = title.ParseStrategy(mustGetString(cmd, "ai-shape")); err != nil {
		return gc, err
	}
	if gc.Tier, err = ai.ParseModelTier(mustGetString(cmd, "tier")); err != nil {
		return gc, err
	}
	return gc.WithDefaults(), nil
}

func newRowProgressBar(count int) *progressbar.ProgressBar {
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Generating"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := logging.Component(newLogger(cmd, cfg), "generate")
	quiet := mustGetBool(cmd, "quiet")

	gc, err := generationConfigFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	vocab, err := loadVocabulary(mustGetString(cmd, "vocabulary"), cfg)
	if err != nil {
		return err
	}

	// Set up context with signal handling for graceful cancellation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider ai.TextProvider
	var requester *title.Requester
	if gc.Strategy == title.StrategyExternal {
		provider, err = ai.NewProvider(ctx, cfg.ProviderSettings(mustGetString(cmd, "provider")))
		if err != nil {
			return err
		}
		requester, err = title.NewRequester(provider, title.RequesterOptions{
			Timeout: cfg.AI.Timeout,
			Retries: cfg.AI.Retries,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
	}

	if err := gc.Validate(requester != nil); err != nil {
		return err
	}

	fmt.Printf("Subject: %s\n", gc.Subject)
	fmt.Printf("Keywords: %d\n", len(gc.Keywords))
	fmt.Printf("Category: %s\n", gc.Category)
	fmt.Printf("Mode: %s (%s)\n", gc.Mode, gc.Mode.Description(gc.HeadSize))
	fmt.Printf("Strategy: %s\n", gc.Strategy)
	if provider != nil {
		fmt.Printf("Provider: %s (%s)\n", provider.Name(), provider.Model(gc.Tier))
	}
	fmt.Println()

	var opts generator.Options
	var bar *progressbar.ProgressBar
	if !quiet {
		bar = newRowProgressBar(gc.Rows)
		opts.OnProgress = func(generator.ProgressInfo) {
			_ = bar.Add(1)
		}
	}

	gen := generator.New(requester, vocab, logger)
	result, err := gen.Generate(ctx, gc, opts)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	if len(result.Records) == 0 {
		return errors.New("generation cancelled before any row was finished")
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		output = stockcsv.DefaultFileName(len(result.Records))
	}
	if err := stockcsv.WriteFile(output, result.Records); err != nil {
		return err
	}

	if result.Cancelled {
		fmt.Printf("\nCancelled: wrote %d of %d rows\n", len(result.Records), gc.Rows)
	}
	fmt.Printf("\nWrote %d rows to %s\n", len(result.Records), output)
	fmt.Printf("Seed: %d\n", result.Seed)
	if result.AIFailures > 0 {
		fmt.Printf("AI failures: %d\n", result.AIFailures)
	}

	if provider != nil {
		usage := provider.GetUsage()
		if usage.InputTokens > 0 || usage.OutputTokens > 0 {
			fmt.Printf("\nAPI Usage:\n")
			fmt.Printf("  Requests: %d\n", usage.Requests)
			fmt.Printf("  Input tokens: %d\n", usage.InputTokens)
			fmt.Printf("  Output tokens: %d\n", usage.OutputTokens)
			fmt.Printf("  Total cost: $%.4f\n", usage.TotalCost)
		}
	}

	if cfg.Database.Backend() != config.DriverMemory {
		if err := saveRunHistory(ctx, &cfg.Database, gc, result); err != nil {
			logger.Warn().Err(err).Msg("failed to save run history")
		}
	}

	if !quiet {
		printPreview(result.Preview(constants.PreviewRows))
	}
	return nil
}

// saveRunHistory stores the run in the configured database so it shows up
// in 'history' and the web API.
func saveRunHistory(ctx context.Context, dbCfg *config.DatabaseConfig, gc generator.GenerationConfig, result *generator.Result) error {
	// The run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	store, err := openRunStore(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &database.StoredRun{
		ID:         uuid.New().String(),
		Subject:    gc.Subject,
		Strategy:   string(gc.Strategy),
		Mode:       string(gc.Mode),
		Category:   gc.Category,
		Requested:  gc.Rows,
		AIFailures: result.AIFailures,
		Cancelled:  result.Cancelled,
		Seed:       result.Seed,
		CreatedAt:  time.Now().UTC(),
		Records:    result.Records,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	fmt.Printf("Run saved to history: %s\n", run.ID)
	return nil
}

func printPreview(records []stockcsv.Record) {
	fmt.Printf("\nPreview (first %d rows):\n", len(records))
	for _, r := range records {
		fmt.Printf("  %s\n", r.Filename)
		fmt.Printf("    Title: %s\n", r.Title)
		fmt.Printf("    Keywords: %s\n", r.Keywords)
	}
}
