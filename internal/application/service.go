package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/gigmarket/messaging/internal/profile"
	"github.com/gigmarket/messaging/internal/repository"
)

type Service struct {
	repo     repository.Repository
	users    profile.Lookup
	enricher *profile.Enricher
	now      func() time.Time
	newID    func() (uuid.UUID, error)
}

func New(repo repository.Repository, users profile.Lookup) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		enricher: profile.NewEnricher(users),
		now:      time.Now,
		newID:    uuid.NewV7,
	}
}

func (s *Service) Enricher() *profile.Enricher { return s.enricher }
