package services

import (
	"context"
	"strings"
	"time"

	"eventticketing/internal/domain"
)

type inventoryService struct {
	resourceRepo   domain.ResourceRepository
	contextTimeout time.Duration
}

func NewInventoryService(resourceRepo domain.ResourceRepository, timeout time.Duration) domain.InventoryService {
	return &inventoryService{
		resourceRepo:   resourceRepo,
		contextTimeout: timeout,
	}
}

func (s *inventoryService) CreateResource(ctx context.Context, r *domain.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	if r.Name == "" {
		return domain.InvalidInputf("name is required")
	}
	if r.Type == "" {
		return domain.InvalidInputf("type is required")
	}
	if r.TotalCapacity < 0 {
		return domain.InvalidInputf("total capacity must be >= 0")
	}

	now := time.Now()
	r.Kind = domain.KindOf(r.Type)
	r.AvailableCapacity = r.TotalCapacity
	r.Status = domain.ResourceAvailable
	r.AllocatedTo = nil
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := s.resourceRepo.Create(ctx, r); err != nil {
		return passDomain("create resource", err)
	}
	return nil
}

func (s *inventoryService) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	r, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, passDomain("get resource", err)
	}
	return r, nil
}

func (s *inventoryService) ListResources(ctx context.Context, onlyAvailable bool) ([]*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	resources, err := s.resourceRepo.List(ctx, onlyAvailable)
	if err != nil {
		return nil, passDomain("list resources", err)
	}
	return resources, nil
}

// UpdateResource changes name, description or location only.
func (s *inventoryService) UpdateResource(ctx context.Context, id string, u *domain.ResourceUpdate) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if u.Name == nil && u.Description == nil && u.Location == nil {
		return nil, domain.InvalidInputf("nothing to update")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, domain.InvalidInputf("name must not be empty")
		}
		u.Name = &name
	}
	r, err := s.resourceRepo.Update(ctx, id, u)
	if err != nil {
		return nil, passDomain("update resource", err)
	}
	return r, nil
}

func (s *inventoryService) DeleteResource(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		return passDomain("delete resource", err)
	}
	return nil
}
