package banners

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
)

// Service exposes storefront banner operations.
type Service interface {
	ListActive(ctx context.Context) ([]models.Banner, error)
	ListAll(ctx context.Context) ([]models.Banner, error)
	Create(ctx context.Context, input Input) (*models.Banner, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Banner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires banner dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "banners repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Input captures the payload for creating or updating a banner.
type Input struct {
	Title       string
	Description *string
	ImageURL    string
	LinkURL     *string
	IsActive    bool
	Priority    int
	StartDate   *time.Time
	EndDate     *time.Time
}

func (s *service) ListActive(ctx context.Context) ([]models.Banner, error) {
	rows, err := s.repo.ListActive(ctx, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active banners")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Banner, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Banner, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	banner := buildBanner(uuid.New(), input)
	if err := s.repo.Create(ctx, banner); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create banner")
	}
	return banner, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Banner, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner id required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load banner")
	}

	updated := buildBanner(existing.ID, input)
	updated.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update banner")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner id required")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete banner")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
	}
	return nil
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner title required")
	}
	if strings.TrimSpace(input.ImageURL) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner image url required")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner end date precedes start date")
	}
	return nil
}

func buildBanner(id uuid.UUID, input Input) *models.Banner {
	return &models.Banner{
		ID:          id,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		LinkURL:     input.LinkURL,
		IsActive:    input.IsActive,
		Priority:    input.Priority,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
}
