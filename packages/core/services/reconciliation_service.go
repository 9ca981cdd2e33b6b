package services

import (
	"context"
	"log"
)

// ReconciliationService runs the ledger audit and reports what it finds.
// It never repairs data; violations need an operator.
type ReconciliationService struct {
	statsService *StatsService
}

func NewReconciliationService(statsService *StatsService) *ReconciliationService {
	return &ReconciliationService{
		statsService: statsService,
	}
}

// Run audits the store and logs each violation. It returns the number found.
func (s *ReconciliationService) Run(ctx context.Context) (int, error) {
	violations, err := s.statsService.Audit(ctx)
	if err != nil {
		log.Printf("Error running ledger audit: %v", err)
		return 0, err
	}

	if len(violations) == 0 {
		log.Println("Ledger audit found no violations")
		return 0, nil
	}

	log.Printf("Ledger audit found %d violation(s)", len(violations))
	for _, v := range violations {
		log.Printf("Violation %s for player %s: %s", v.Kind, v.PlayerID, v.Detail)
	}

	return len(violations), nil
}
