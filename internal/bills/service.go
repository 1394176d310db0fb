package bills

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/events"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

const (
	maxNameLength = 200
	// amountPlaces matches the NUMERIC(14,2) bill amount column.
	amountPlaces = 2
)

// Service handles bill business logic.
type Service struct {
	billRepo   repository.BillRepository
	publisher  events.Publisher
	categories []string
	logger     *slog.Logger
}

// NewService creates a new bill service. publisher may be nil; empty categories select the
// default vocabulary.
func NewService(billRepo repository.BillRepository, publisher events.Publisher, categories []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if len(categories) == 0 {
		categories = constants.AsStringSlice()
	}
	return &Service{
		billRepo:   billRepo,
		publisher:  publisher,
		categories: categories,
		logger:     logger,
	}
}

// Create validates and stores a new bill. It satisfies reconcile.BillCreator.
func (s *Service) Create(ctx context.Context, userID string, in entity.BillInput) (*entity.Bill, error) {
	if userID == "" {
		return nil, &common.AuthRequiredError{}
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Amount = in.Amount.Round(amountPlaces)
	in.Category = s.canonicalCategory(in.Category)
	if in.Frequency == "" {
		in.Frequency = string(constants.DefaultFrequency)
	} else if f, ok := constants.ParseFrequency(in.Frequency); ok {
		in.Frequency = string(f)
	}

	v := common.NewValidator().
		Field("name", in.Name, common.Required, common.MaxLength(maxNameLength)).
		Field("amount", in.Amount, common.Positive).
		Field("dueDate", in.DueDate, common.Required).
		Field("category", in.Category, common.Required, common.OneOf(s.categories...)).
		Field("frequency", in.Frequency, common.OneOf(constants.FrequenciesAsStringSlice()...))
	if err := v.Err(); err != nil {
		s.logger.Warn("bills.create.invalid", "user_id", userID, "error", err)
		return nil, err
	}

	b, err := s.billRepo.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bills.create.ok", "user_id", userID, "bill_id", b.ID, "name", b.Name, "amount", b.Amount.String())
	s.emit(ctx, events.TypeBillCreated, userID, b)
	return b, nil
}

// Get returns one bill.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.Bill, error) {
	return s.billRepo.Get(ctx, userID, id)
}

// List returns the user's bills ordered by due date.
func (s *Service) List(ctx context.Context, userID string, filter entity.BillFilter) ([]*entity.Bill, error) {
	if filter.Category != "" {
		filter.Category = s.canonicalCategory(filter.Category)
	}
	list, err := s.billRepo.List(ctx, userID, filter)
	if err != nil {
		s.logger.Error("bills.list.failed", "user_id", userID, "error", err)
		return nil, err
	}
	return list, nil
}

// Update applies a partial update after validating the fields present.
func (s *Service) Update(ctx context.Context, userID string, id uuid.UUID, u entity.BillUpdate) (*entity.Bill, error) {
	if u.Empty() {
		return nil, &common.ValidationError{Message: "no fields to update"}
	}
	v := common.NewValidator()
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
		v.Field("name", name, common.Required, common.MaxLength(maxNameLength))
	}
	if u.Amount != nil {
		amount := u.Amount.Round(amountPlaces)
		u.Amount = &amount
		v.Field("amount", amount, common.Positive)
	}
	if u.DueDate != nil {
		v.Field("dueDate", *u.DueDate, common.Required)
	}
	if u.Category != nil {
		c := s.canonicalCategory(*u.Category)
		u.Category = &c
		v.Field("category", c, common.Required, common.OneOf(s.categories...))
	}
	if u.Frequency != nil {
		f := *u.Frequency
		if parsed, ok := constants.ParseFrequency(f); ok {
			f = string(parsed)
		}
		u.Frequency = &f
		v.Field("frequency", f, common.Required, common.OneOf(constants.FrequenciesAsStringSlice()...))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	b, err := s.billRepo.Update(ctx, userID, id, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bills.update.ok", "user_id", userID, "bill_id", id)
	s.emit(ctx, events.TypeBillUpdated, userID, b)
	return b, nil
}

// TogglePaid flips the paid flag.
func (s *Service) TogglePaid(ctx context.Context, userID string, id uuid.UUID) (*entity.Bill, error) {
	cur, err := s.billRepo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	paid := !cur.IsPaid
	return s.Update(ctx, userID, id, entity.BillUpdate{IsPaid: &paid})
}

// Delete removes a bill.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.billRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("bills.delete.ok", "user_id", userID, "bill_id", id)
	s.emit(ctx, events.TypeBillDeleted, userID, map[string]string{"id": id.String()})
	return nil
}

func (s *Service) canonicalCategory(c string) string {
	if canon, ok := constants.Canonicalize(c, s.categories); ok {
		return canon
	}
	return strings.TrimSpace(c)
}

func (s *Service) emit(ctx context.Context, eventType, userID string, payload any) {
	e, err := events.New(eventType, userID, payload)
	if err != nil {
		s.logger.Error("bills.event.encode_failed", "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("bills.event.publish_failed", "type", eventType, "error", err)
	}
}
