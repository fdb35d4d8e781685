package prune

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"allocmgr/internal/application/allocation/usecases"
	"allocmgr/internal/infrastructure/config"
	"allocmgr/internal/infrastructure/database"
	"allocmgr/internal/infrastructure/repository"
	"allocmgr/internal/shared/biztime"
	"allocmgr/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune-memberships",
		Short: "Delete expired allocation memberships",
		Long:  `Delete membership rows whose expiration date has passed. Safe to run repeatedly; the scheduled worker job runs the same operation.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := biztime.Init(cfg.Worker.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log := logger.NewLogger().Named("prune")
	userRepo := repository.NewAllocationUserRepository(database.Get())
	uc := usecases.NewPruneMembershipsUseCase(userRepo, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := uc.Execute(ctx)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	fmt.Printf("Deleted %d expired memberships\n", result.Deleted)
	return nil
}
