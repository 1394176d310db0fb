package profiles

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

// Service handles profile business logic.
type Service struct {
	profileRepo repository.ProfileRepository
	logger      *slog.Logger
}

// NewService creates a new profile service.
func NewService(profileRepo repository.ProfileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// Get returns the stored profile, or the defaults when the user has not saved one.
func (s *Service) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	if userID == "" {
		return nil, &common.AuthRequiredError{}
	}
	p, err := s.profileRepo.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return entity.DefaultProfile(userID), nil
	}
	if err != nil {
		s.logger.Error("profiles.get.failed", "user_id", userID, "error", err)
		return nil, err
	}
	return p, nil
}

// Update merges u into the current profile (or the defaults) and saves it.
func (s *Service) Update(ctx context.Context, userID string, u entity.ProfileUpdate) (*entity.Profile, error) {
	cur, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*u.Currency))
		u.Currency = &c
	}

	v := common.NewValidator()
	if u.Income != nil {
		v.Field("income", *u.Income, common.NonNegative)
	}
	if u.SavingsGoal != nil {
		v.Field("savingsGoal", *u.SavingsGoal, common.NonNegative)
	}
	if u.Currency != nil {
		v.Field("currency", *u.Currency, common.Required, common.CurrencyCode)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	u.Apply(cur)
	p, err := s.profileRepo.Upsert(ctx, cur)
	if err != nil {
		s.logger.Error("profiles.update.failed", "user_id", userID, "error", err)
		return nil, err
	}
	s.logger.Info("profiles.update.ok", "user_id", userID)
	return p, nil
}
