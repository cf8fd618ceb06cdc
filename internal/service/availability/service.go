package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/barberbooking/internal/domain"
	"github.com/Domenick1991/barberbooking/internal/repository"
)

type SlotUseCase interface {
	FindEarliestSlot(ctx context.Context, serviceID int64, eligibleIDs []int64) (*domain.EarliestSlotResult, error)
}

type SlotService struct {
	services repository.ServiceRepository
	finder   *Finder
}

func NewSlotService(services repository.ServiceRepository, finder *Finder) *SlotService {
	return &SlotService{services: services, finder: finder}
}

func (s *SlotService) FindEarliestSlot(ctx context.Context, serviceID int64, eligibleIDs []int64) (*domain.EarliestSlotResult, error) {
	if serviceID <= 0 {
		return nil, fmt.Errorf("%w: service id must be positive", domain.ErrValidation)
	}
	for _, id := range eligibleIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: resource id must be positive", domain.ErrValidation)
		}
	}

	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			return nil, err
		}
		return nil, domain.Upstream("service repository", err)
	}
	return s.finder.FindEarliest(ctx, *svc, eligibleIDs)
}

var _ SlotUseCase = (*SlotService)(nil)
