package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mnemograph/internal/config"
	"mnemograph/internal/embedder"
	"mnemograph/internal/engine"
	"mnemograph/internal/store"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mnemograph",
	Short: "Semantic memory engine: typed concepts, weighted associations, competing assertions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logConfig := zap.NewProductionConfig()
		if verbose {
			logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logConfig.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to .mnemograph.db database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Debug logging")
}

// loadConfig resolves configuration: --config flag, then .mnemograph.yaml in
// the working directory, then built-in defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if _, err := os.Stat(".mnemograph.yaml"); err == nil {
		return config.Load(".mnemograph.yaml")
	}
	return config.Default(), nil
}

// discoverDB finds the sqlite database path using priority:
// env > flag > walk-up from CWD > config default.
func discoverDB(cfg *config.Config) string {
	if envPath := os.Getenv("MNEMOGRAPH_DB"); envPath != "" {
		return envPath
	}
	if dbPath != "" {
		return dbPath
	}
	if dir, err := os.Getwd(); err == nil {
		for {
			candidate := filepath.Join(dir, ".mnemograph.db")
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return cfg.Storage.Path
}

// openEngine builds the configured store and embedder. The returned cleanup
// closes the store and flushes the logger.
func openEngine(ctx context.Context) (*engine.Engine, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	var st store.Store
	switch cfg.Storage.Backend {
	case "memory":
		st = store.NewMemory()
	case "neo4j":
		st, err = store.OpenNeo4j(ctx, cfg.Storage.Neo4j.URI, cfg.Storage.Neo4j.Username, cfg.Storage.Neo4j.Password)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to neo4j: %w", err)
		}
	default:
		st, err = store.OpenSQLite(discoverDB(cfg))
		if err != nil {
			return nil, nil, nil, err
		}
	}

	var embed embedder.Func
	switch cfg.Embedding.Provider {
	case "openai":
		embed = embedder.OpenAI(os.Getenv(cfg.Embedding.APIKeyEnv), cfg.Embedding.Model, cfg.Embedding.BaseURL)
	default:
		embed = embedder.Hash(cfg.Embedding.Dimension)
	}

	eng := engine.New(st, embed, engine.WithLogger(logger))
	cleanup := func() {
		st.Close()
		_ = logger.Sync()
	}
	return eng, cfg, cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
