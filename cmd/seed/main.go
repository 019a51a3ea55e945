package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"threatdash/internal/config"
	"threatdash/internal/infrastructure/storage"
	"threatdash/internal/seed"
	"threatdash/pkg/logger"
)

var (
	configPath   string
	fixturesPath string
	reset        bool
	resetOnly    bool
)

func main() {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Load sample threat intelligence records into the configured storage backend",
		SilenceUsage: true,
		RunE:         run,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: search ., ./config, /etc/threatdash)")
	root.Flags().StringVarP(&fixturesPath, "fixtures", "f", "", "YAML fixtures file (default: built-in sample data)")
	root.Flags().BoolVar(&reset, "reset", false, "empty all record collections before seeding")
	root.Flags().BoolVar(&resetOnly, "reset-only", false, "empty all record collections and exit")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: os.Stderr,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := storage.Open(ctx, cfg.Storage, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	defer backend.Close()

	s := seed.New(backend, log)
	if reset || resetOnly {
		if err := s.Reset(ctx); err != nil {
			return err
		}
		if resetOnly {
			return nil
		}
	}

	var fixtures *seed.Fixtures
	if fixturesPath != "" {
		fixtures, err = seed.LoadFile(afero.NewOsFs(), fixturesPath)
	} else {
		fixtures, err = seed.Default()
	}
	if err != nil {
		return err
	}

	res, err := s.Run(ctx, fixtures)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seeded %s backend\n", backend.Name())
	for _, c := range []string{"feeds", "actors", "indicators", "incidents"} {
		fmt.Fprintf(out, "  %-10s created %d, skipped %d\n", c, res.Created[c], res.Skipped[c])
	}
	return nil
}
