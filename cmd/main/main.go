package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"sitepress/pkg/preprocess"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// sysexits-style exit categories, kept compatible with the original tool's
// os.EX_* values so wrapper scripts keep working.
const (
	exDataErr     = 65
	exNoInput     = 66
	exUnavailable = 69
	exSoftware    = 70
)

// exitCode maps an error to its process exit category. Every error kind in
// the preprocessor taxonomy gets a distinct category so callers can tell a
// broken template from a missing table entry or an unreachable host.
func exitCode(err error) int {
	var (
		missingInclude *preprocess.MissingIncludeError
		missingFunc    *preprocess.MissingFunctionError
		missingConst   *preprocess.MissingConstantError
		unterminated   *preprocess.UnterminatedBlockError
		fetch          *preprocess.ResourceFetchError
		preamble       *preprocess.PreambleError
		cyclic         *preprocess.CyclicIncludeError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &missingFunc), errors.As(err, &missingConst):
		return exNoInput
	case errors.As(err, &missingInclude), errors.As(err, &unterminated),
		errors.As(err, &preamble), errors.As(err, &cyclic):
		return exDataErr
	case errors.As(err, &fetch):
		return exUnavailable
	default:
		return exSoftware
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	configPath := flag.String("config", "./sitepress.json", "path to the build configuration file")
	flag.Parse()

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// The single positional argument overrides the configured output
	// directory.
	if err := run(*configPath, flag.Arg(0), baseLogger); err != nil {
		baseLogger.Error("Build failed", "error", err)
		os.Exit(exitCode(err))
	}
}

// run executes one full build: every file in the pages directory expands
// independently and is written to the output directory. The first error
// aborts the whole run; there is no partial-output or retry policy.
func run(configPath, outputOverride string, baseLogger *slog.Logger) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(config.Build.LogLevel),
	}))

	outputDir := config.Build.OutputDir
	if outputOverride != "" {
		outputDir = outputOverride
	}
	if err = os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var constants *preprocess.Constants
	if config.Build.ConstantsPath != "" {
		constants, err = preprocess.LoadConstants(config.Build.ConstantsPath)
		if err != nil {
			// A build that never looks a constant up should not need the
			// table to exist.
			if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			logger.Debug("No constants file found", "path", config.Build.ConstantsPath)
			constants = nil
		}
	}

	engine := preprocess.New(logger, config.Engine, constants, config.Build.IncludeDir, outputDir, nil)

	var recorder *BuildRecorder
	if config.Build.StatsDatabasePath != "" {
		var db *sql.DB
		db, err = initDB(config.Build.StatsDatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open stats database: %w", err)
		}
		defer func(db *sql.DB) {
			_ = db.Close()
		}(db)
		if err = setupStatsSchema(db); err != nil {
			return fmt.Errorf("failed to set up stats schema: %w", err)
		}
		recorder = NewBuildRecorder(db, logger)
	}

	entries, err := os.ReadDir(config.Build.PagesDir)
	if err != nil {
		return fmt.Errorf("failed to list pages directory: %w", err)
	}
	var pages []string
	for _, entry := range entries {
		if !entry.IsDir() {
			pages = append(pages, entry.Name())
		}
	}

	logger.Info("Starting build",
		"pages", len(pages),
		"workers", config.Build.Workers,
		"output_dir", outputDir)

	if err = buildPages(logger, engine, recorder, config.Build.PagesDir, outputDir, pages, config.Build.Workers); err != nil {
		return err
	}

	if recorder != nil {
		recorder.LogSummary()
	}
	logger.Info("Build complete", "pages", len(pages))
	return nil
}

// buildPages expands every page, fanning out across workers. Pages share no
// mutable state besides the resource cache, so the only coordination needed
// is fail-fast: the first error stops the dispatch and is returned.
func buildPages(logger *slog.Logger, engine *preprocess.Engine, recorder *BuildRecorder, pagesDir, outputDir string, pages []string, workers int) error {
	if workers < 1 {
		workers = 1
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	aborted := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	work := make(chan string)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range work {
				if aborted() {
					continue
				}
				if err := buildPage(logger, engine, recorder, pagesDir, outputDir, page); err != nil {
					fail(fmt.Errorf("page %s: %w", page, err))
				}
			}
		}()
	}
	for _, page := range pages {
		work <- page
	}
	close(work)
	wg.Wait()

	return firstErr
}

// buildPage expands one page file and writes the result under the same
// name. A leftover opening delimiter is a warning, not a failure: the
// output is still written.
func buildPage(logger *slog.Logger, engine *preprocess.Engine, recorder *BuildRecorder, pagesDir, outputDir, page string) error {
	start := time.Now()

	data, err := os.ReadFile(filepath.Join(pagesDir, page))
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	out, err := engine.Process(string(data))
	if err != nil {
		return err
	}
	if preprocess.HasUnresolved(out) {
		logger.Warn("Substitution may have failed", "page", page)
	}

	if err = atomic.WriteFile(filepath.Join(outputDir, page), strings.NewReader(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if recorder != nil {
		recorder.RecordPage(page, time.Since(start), len(out))
	}
	logger.Debug("Page built", "page", page, "bytes", len(out), "duration", time.Since(start))
	return nil
}
