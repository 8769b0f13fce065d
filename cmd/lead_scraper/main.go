package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"manoya/internal/config"
	"manoya/internal/db"
	"manoya/internal/leads"
	"manoya/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		services []string
		cities   []string
		dryRun   bool
		headless bool
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "lead_scraper",
		Short: "Busca profesionales en Google Maps y los carga en el directorio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			logger, _ := zap.NewDevelopment()
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var repo repository.ProfessionalRepository = repository.NewMemoryProfessionalRepository()
			if !dryRun {
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("DATABASE_URL is required unless --dry-run is set")
				}
				pool, err := db.NewPool(ctx, cfg)
				if err != nil {
					return fmt.Errorf("db connect: %w", err)
				}
				defer pool.Close()
				if err := db.Migrate(ctx, pool); err != nil {
					return err
				}
				repo = repository.NewPgProfessionalRepository(pool)
			}

			stats, err := leads.NewScraper(repo, logger, headless, dryRun).Run(ctx, services, cities)
			logger.Info("scraping finished",
				zap.Int("queries", stats.Queries),
				zap.Int("found", stats.Found),
				zap.Int("saved", stats.Saved),
				zap.Int("failed", stats.Failed),
			)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&services, "services", leads.DefaultServices, "oficios a buscar")
	cmd.Flags().StringSliceVar(&cities, "cities", leads.DefaultCities, "ciudades o barrios")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "solo loguea los leads, no escribe en la base")
	cmd.Flags().BoolVar(&headless, "headless", true, "ejecuta Chrome sin ventana")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Minute, "tiempo maximo de la corrida")
	return cmd
}
