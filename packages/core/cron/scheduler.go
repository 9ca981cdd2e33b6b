package cron

import (
	"context"
	"log"

	"tennis-ledger-api/packages/core/services"

	"github.com/robfig/cron/v3"
)

// DefaultReconcileSchedule runs the audit at minute 0 of every hour.
const DefaultReconcileSchedule = "0 0 * * * *"

type Scheduler struct {
	cron                  *cron.Cron
	schedule              string
	reconciliationService *services.ReconciliationService
}

func NewScheduler(reconciliationService *services.ReconciliationService, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}

	// Seconds precision, logged through the standard logger
	c := cron.New(cron.WithSeconds(), cron.WithLogger(cron.VerbosePrintfLogger(log.Default())))

	return &Scheduler{
		cron:                  c,
		schedule:              schedule,
		reconciliationService: reconciliationService,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	log.Println("Starting cron scheduler...")

	_, err := s.cron.AddFunc(s.schedule, s.runReconciliation)
	if err != nil {
		log.Printf("Error scheduling reconciliation job: %v", err)
		return err
	}

	s.cron.Start()
	log.Printf("Cron scheduler started with reconciliation schedule %q", s.schedule)

	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	log.Println("Stopping cron scheduler...")
	<-s.cron.Stop().Done()
	log.Println("Cron scheduler stopped")
}

func (s *Scheduler) runReconciliation() {
	log.Println("Running reconciliation job...")

	count, err := s.reconciliationService.Run(context.Background())
	if err != nil {
		log.Printf("Error during reconciliation: %v", err)
		return
	}

	log.Printf("Reconciliation job completed with %d violation(s)", count)
}

// RunNow runs the reconciliation job synchronously.
func (s *Scheduler) RunNow() {
	log.Println("Manually triggering reconciliation job...")
	s.runReconciliation()
}
