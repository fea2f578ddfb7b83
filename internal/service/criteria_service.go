package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	MinCriterionWeight = 0.1
	MaxCriterionWeight = 1.0
)

// DefaultCriteria is the rubric seeded into an empty criteria table. Weights sum to 1.
func DefaultCriteria() []model.Criterion {
	return []model.Criterion{
		{Name: "Correctness", Description: "The solution produces the expected result for the stated problem.", Weight: 0.4},
		{Name: "Logic", Description: "The reasoning and control flow are sound and complete.", Weight: 0.3},
		{Name: "Good practices", Description: "Idiomatic constructs, sensible naming and no needless complexity.", Weight: 0.2},
		{Name: "Readability", Description: "The code is easy to follow and consistently formatted.", Weight: 0.1},
	}
}

type CriteriaService interface {
	// EnsureDefaultCriteria seeds the default rubric when no criterion exists and returns the current set.
	EnsureDefaultCriteria(ctx context.Context) ([]model.Criterion, error)
	List(ctx context.Context) ([]dto.CriterionResponse, error)
	Create(ctx context.Context, req dto.CreateCriterionRequest) (*dto.CriterionResponse, error)
}

type criteriaService struct {
	criterionRepo repository.CriterionRepository
}

func NewCriteriaService(criterionRepo repository.CriterionRepository) CriteriaService {
	return &criteriaService{criterionRepo: criterionRepo}
}

func (s *criteriaService) EnsureDefaultCriteria(ctx context.Context) ([]model.Criterion, error) {
	criteria, err := s.criterionRepo.SeedIfEmpty(ctx, DefaultCriteria())
	if err != nil {
		log.Error().Err(err).Msg("EnsureDefaultCriteria: seeding failed")
		return nil, err
	}
	return criteria, nil
}

func (s *criteriaService) List(ctx context.Context) ([]dto.CriterionResponse, error) {
	criteria, err := s.EnsureDefaultCriteria(ctx)
	if err != nil {
		return nil, err
	}
	var resp []dto.CriterionResponse
	if err := copier.Copy(&resp, &criteria); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *criteriaService) Create(ctx context.Context, req dto.CreateCriterionRequest) (*dto.CriterionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name", "is required")
	}
	if req.Weight < MinCriterionWeight || req.Weight > MaxCriterionWeight {
		return nil, validationError("weight", "must be between 0.1 and 1.0")
	}
	criterion := model.Criterion{Name: name, Description: req.Description, Weight: req.Weight}
	if err := s.criterionRepo.Create(ctx, &criterion); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCriterionExists
		}
		return nil, err
	}
	var resp dto.CriterionResponse
	copier.Copy(&resp, &criterion)
	return &resp, nil
}
