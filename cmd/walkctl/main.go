// Command walkctl is the walk tracker admin CLI.
//
// Usage:
//
//	walkctl migrate
//	walkctl groups
//	walkctl stats --chat -100123456
//	walkctl export --chat -100123456 --out walks.csv
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/marinarosell/dora-bot/internal/alert"
	"github.com/marinarosell/dora-bot/internal/config"
	"github.com/marinarosell/dora-bot/internal/db"
	"github.com/marinarosell/dora-bot/internal/export"
	"github.com/marinarosell/dora-bot/internal/stats"
	"github.com/marinarosell/dora-bot/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "walkctl",
		Short: "Dora walk tracker admin CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(groupsCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(exportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				return db.Migrate(ctx, pool, logger)
			})
		},
	}
}

// --------------------------------------------------------------------------
// groups command
// --------------------------------------------------------------------------

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List registered chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				st := store.NewPostgres(pool.Pool, logger)
				groups, err := st.Groups(ctx)
				if err != nil {
					return fmt.Errorf("list chats: %w", err)
				}
				if len(groups) == 0 {
					fmt.Println("No chats registered.")
					return nil
				}
				for _, id := range groups {
					fmt.Println(id)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	var chatID int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show walk statistics for one chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID == 0 {
				return fmt.Errorf("--chat is required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				st := store.NewPostgres(pool.Pool, logger)
				walks, err := st.Walks(ctx, chatID)
				if err != nil {
					return fmt.Errorf("load walks: %w", err)
				}

				s := stats.Compute(walks)
				if s.Count == 0 {
					fmt.Println("No hay ningún paseo registrado aún.")
					return nil
				}

				loc := cfg.Location
				fmt.Printf("Paseos:  %d\n", s.Count)
				fmt.Printf("Primero: %s\n", s.First.In(loc).Format("2006-01-02 15:04"))
				fmt.Printf("Último:  %s\n", s.Last.In(loc).Format("2006-01-02 15:04"))
				fmt.Printf("Tiempo medio entre paseos: %.1f h\n", s.AvgGapHours)
				fmt.Printf("Cacas:   %s\n", alert.FormatTally(s.Outcomes))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Telegram chat ID")
	return cmd
}

// --------------------------------------------------------------------------
// export command
// --------------------------------------------------------------------------

func exportCmd() *cobra.Command {
	var chatID int64
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the walk log for one chat as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID == 0 {
				return fmt.Errorf("--chat is required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				st := store.NewPostgres(pool.Pool, logger)
				walks, err := st.Walks(ctx, chatID)
				if err != nil {
					return fmt.Errorf("load walks: %w", err)
				}

				w := os.Stdout
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("create %s: %w", out, err)
					}
					defer f.Close()
					w = f
				}

				if err := export.Write(w, walks, cfg.Location); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
				if out != "" {
					logger.Info("Export written", "file", out, "walks", len(walks))
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Telegram chat ID")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withPool handles config loading, DB connection, and context cancellation.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
