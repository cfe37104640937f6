package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IgorChugurov/public-api-sdk/internal/blob"
	"github.com/IgorChugurov/public-api-sdk/internal/config"
	"github.com/IgorChugurov/public-api-sdk/internal/entity"
	"github.com/IgorChugurov/public-api-sdk/internal/events"
	"github.com/IgorChugurov/public-api-sdk/internal/store/postgres"
)

var (
	configPath string
	jsonOutput bool
	actor      string

	cfg    *config.Config
	st     *postgres.PostgresStore
	pub    events.Publisher
	client *entity.Client
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

var rootCmd = &cobra.Command{
	Use:   "pasdk",
	Short: "CLI for the entity data access layer",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		st, err = postgres.New(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		pub = &events.NoopPublisher{}
		if cfg.NATSURL != "" {
			pub, err = events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
		}

		opts := []entity.Option{
			entity.WithPublisher(pub),
			entity.WithLogger(slog.Default()),
		}
		if cfg.S3Bucket != "" {
			blobs, err := blob.NewS3Store(cmd.Context(), cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
			if err != nil {
				return fmt.Errorf("failed to open blob store: %w", err)
			}
			opts = append(opts, entity.WithBlobStore(blobs))
		}

		client = entity.NewClient(st, entity.Config{
			ProjectID:    cfg.ProjectID,
			DisableCache: cfg.CacheDisabled,
			CacheTTL:     cfg.CacheTTL,
		}, opts...)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pub != nil {
			pub.Close()
		}
		if st != nil {
			st.Close()
		}
	},
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// cmdContext tags the command context with the actor so created_by
// fields are attributed.
func cmdContext(cmd *cobra.Command) context.Context {
	return entity.WithActor(cmd.Context(), actor)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file (default: environment only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name for created_by fields")

	rootCmd.AddCommand(definitionsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
