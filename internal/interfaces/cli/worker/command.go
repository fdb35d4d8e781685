package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"allocmgr/internal/application/allocation/usecases"
	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/infrastructure/cache"
	"allocmgr/internal/infrastructure/config"
	"allocmgr/internal/infrastructure/database"
	"allocmgr/internal/infrastructure/directory"
	"allocmgr/internal/infrastructure/email"
	"allocmgr/internal/infrastructure/gpfs"
	"allocmgr/internal/infrastructure/repository"
	"allocmgr/internal/infrastructure/scheduler"
	"allocmgr/internal/infrastructure/tasks"
	"allocmgr/internal/shared/biztime"
	"allocmgr/internal/shared/db"
	"allocmgr/internal/shared/goroutine"
	"allocmgr/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the background worker",
		Long:  `Start the background worker that processes queued provisioning tasks and runs the scheduled allocation maintenance jobs.`,
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

	log := logger.NewLogger().Named("worker")
	log.Infow("starting worker", "environment", env)

	if err := biztime.Init(cfg.Worker.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	jobLock := connectJobLock(cfg, log)

	sender := email.NewSMTPSender(&cfg.Email)
	notifier := email.NewNotifier(sender, &cfg.Email, log.Named("email"))
	goroutine.SetCrashReporter(email.NewCrashReporter(notifier, log.Named("crash")))

	dirClient := directory.NewClient(&cfg.Directory, log.Named("directory"))
	gpfsClient := gpfs.NewClient(&cfg.Filesystem, log.Named("gpfs"))
	provisioner := gpfs.NewFilesetProvisioner(gpfsClient, cfg.Directory.NetBIOSDomain, &cfg.Filesystem, log.Named("gpfs"))

	allocRepo := repository.NewAllocationRepository(database.Get())
	userRepo := repository.NewAllocationUserRepository(database.Get())
	projectRepo := repository.NewProjectRepository(database.Get())
	txManager := db.NewTransactionManager(database.Get())

	provisionUC := usecases.NewProvisionAllocationUseCase(
		allocRepo, userRepo, projectRepo, txManager,
		dirClient, provisioner,
		&cfg.Allocation, &cfg.Filesystem,
		cfg.Directory.Enabled, cfg.Filesystem.Enabled,
		log.Named("provision"),
	)
	reconcileUC := usecases.NewReconcileMembershipsUseCase(
		allocRepo, userRepo, dirClient, notifier, &cfg.Allocation, log.Named("reconcile"),
	)
	lifecycleUC := usecases.NewTransitionLifecycleUseCase(
		allocRepo, userRepo, dirClient, &cfg.Allocation, &cfg.Lifecycle,
		cfg.Directory.Enabled, log.Named("lifecycle"),
	)
	notifyUC := usecases.NewSendExpiryNotificationsUseCase(
		allocRepo, notifier,
		allocation.NotificationSchedule{
			ExpiryWarning:   cfg.Lifecycle.ExpiryWarningDays,
			RemovalWarning:  cfg.Lifecycle.RemovalWarningDays,
			DeletionWarning: cfg.Lifecycle.DeletionWarningDays,
			DeletionNotice:  cfg.Lifecycle.DeletionNoticeDays,
		},
		log.Named("notify"),
	)
	pruneUC := usecases.NewPruneMembershipsUseCase(userRepo, log.Named("prune"))

	queue := tasks.NewQueue(database.Get())
	pollInterval := time.Duration(cfg.Worker.TaskPollSeconds) * time.Second
	taskWorker := tasks.NewWorker(queue, pollInterval, log.Named("tasks"))
	taskWorker.Register(tasks.KindProvisionAllocation, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var provCmd usecases.ProvisionAllocationCommand
		if err := json.Unmarshal(payload, &provCmd); err != nil {
			return nil, fmt.Errorf("failed to decode provision payload: %w", err)
		}
		return provisionUC.Execute(ctx, provCmd)
	})
	taskWorker.Start()

	schedManager, err := scheduler.NewSchedulerManager(jobLock, &cfg.Worker, log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := schedManager.RegisterMaintenanceJobs(
		scheduler.JobFunc(func(ctx context.Context) error {
			_, err := reconcileUC.Execute(ctx)
			return err
		}),
		scheduler.JobFunc(func(ctx context.Context) error {
			_, err := lifecycleUC.Execute(ctx)
			return err
		}),
		scheduler.JobFunc(func(ctx context.Context) error {
			_, err := notifyUC.Execute(ctx)
			return err
		}),
		scheduler.JobFunc(func(ctx context.Context) error {
			_, err := pruneUC.Execute(ctx)
			return err
		}),
	); err != nil {
		return fmt.Errorf("failed to register maintenance jobs: %w", err)
	}
	schedManager.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down worker...")

	if err := schedManager.Stop(); err != nil {
		log.Errorw("scheduler shutdown failed", "error", err)
	}
	taskWorker.Stop()

	log.Infow("worker exited gracefully")
	return nil
}

// connectJobLock builds the Redis-backed job lock. The worker degrades to
// process-local singleton jobs when Redis is unreachable.
func connectJobLock(cfg *config.Config, log logger.Interface) *cache.JobLock {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnw("redis unavailable, scheduled jobs will not be locked across replicas",
			"addr", cfg.Redis.GetAddr(), "error", err)
		return nil
	}

	return cache.NewJobLock(client)
}
