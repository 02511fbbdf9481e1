package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/matchpulse/core/internal/config"
	"github.com/matchpulse/core/pkg/database"
	"github.com/matchpulse/core/pkg/database/pool"
	"github.com/matchpulse/core/pkg/jobs"
	"github.com/matchpulse/core/pkg/provider"
	"github.com/matchpulse/core/pkg/scheduler"
	"github.com/matchpulse/core/pkg/services"
)

func main() {
	// Parse command line flags
	var (
		jobName = flag.String("job", "", "Run specific job once (match_refresh, schedule_plan, knockouts_plan)")
		once    = flag.Bool("once", false, "Run job once and exit")
	)
	flag.Parse()

	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg := config.Load()

	// Connect to database
	db, err := pool.New(context.Background(), cfg.DatabaseURL(), pool.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize services
	queries := database.New(db)
	providerClient := provider.NewClient(cfg)
	schedulerClient := scheduler.NewClient(cfg)
	lockManager := jobs.NewPostgresLockManager(db)

	poller := services.NewMatchPoller(queries, cfg.Sync)
	standings := services.NewStandingsService(queries)
	orchestrator := services.NewOrchestrator(poller, sessionSource{providerClient}, queries, standings)
	registry := services.NewJobRegistry(queries)
	planner := services.NewSchedulePlanner(registry, schedulerClient, queries, lockManager, cfg)

	// Create job manager
	jobManager := jobs.NewJobManager()

	// Register jobs, each guarded against overlapping runs
	matchRefreshJob := jobs.NewLockedJob(jobs.NewMatchRefreshJob(orchestrator), lockManager)
	if err := jobManager.RegisterJob(matchRefreshJob); err != nil {
		log.Fatalf("Failed to register match refresh job: %v", err)
	}

	schedulePlanJob := jobs.NewLockedJob(jobs.NewSchedulePlanJob(planner), lockManager)
	if err := jobManager.RegisterJob(schedulePlanJob); err != nil {
		log.Fatalf("Failed to register schedule plan job: %v", err)
	}

	knockoutsPlanJob := jobs.NewLockedJob(jobs.NewKnockoutsPlanJob(planner), lockManager)
	if err := jobManager.RegisterJob(knockoutsPlanJob); err != nil {
		log.Fatalf("Failed to register knockouts plan job: %v", err)
	}

	// Handle single job execution
	if *once && *jobName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		switch *jobName {
		case "match_refresh":
			log.Println("Running match refresh job once...")
			if err := matchRefreshJob.Execute(ctx); err != nil {
				log.Fatalf("Failed to execute match refresh job: %v", err)
			}
			log.Println("Match refresh completed successfully")
		case "schedule_plan":
			log.Println("Running schedule plan job once...")
			if err := schedulePlanJob.Execute(ctx); err != nil {
				log.Fatalf("Failed to execute schedule plan job: %v", err)
			}
			log.Println("Schedule planning completed successfully")
		case "knockouts_plan":
			log.Println("Running knockouts plan job once...")
			if err := knockoutsPlanJob.Execute(ctx); err != nil {
				log.Fatalf("Failed to execute knockouts plan job: %v", err)
			}
			log.Println("Knockout planning completed successfully")
		default:
			log.Fatalf("Unknown job: %s", *jobName)
		}
		return
	}

	// Start the job manager
	jobManager.Start()
	log.Println("Cron service started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down cron service...")
	jobManager.Stop()
}

// sessionSource adapts the provider client to the orchestrator's session
// contract.
type sessionSource struct {
	client *provider.Client
}

func (s sessionSource) Acquire(ctx context.Context) (services.FetchSession, error) {
	return s.client.Acquire(ctx)
}
