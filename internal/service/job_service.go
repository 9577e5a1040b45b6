package service

import (
	"fmt"
	"log"

	"parkfacil/internal/repository"
)

// JobService runs the scheduled sweeps. It only observes and notifies;
// completing or cancelling a reservation stays an explicit caller action.
type JobService struct {
	Repo   *repository.ReservationRepository
	Notify *NotifyService
}

func NewJobService(repo *repository.ReservationRepository, notify *NotifyService) *JobService {
	return &JobService{Repo: repo, Notify: notify}
}

// RemindOverdueReservations finds active reservations past their expected
// exit and sends each customer a reminder.
func (s *JobService) RemindOverdueReservations() error {
	log.Println("Cron Job: checking for reservations past their expected exit...")

	overdue, err := s.Repo.FindOverdueActive()
	if err != nil {
		return fmt.Errorf("cron job: failed to load overdue reservations: %w", err)
	}
	if len(overdue) == 0 {
		log.Println("Cron Job: no overdue reservations.")
		return nil
	}

	log.Printf("Cron Job: %d reservations past expected exit", len(overdue))
	if s.Notify == nil {
		return nil
	}
	for i := range overdue {
		s.Notify.ReservationOverdue(&overdue[i])
	}
	return nil
}
