package waitlist

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

import (
	"context"
	"errors"

	"github.com/metll/metll-backend/internal/models"
	"github.com/metll/metll-backend/pkg/circuitbreaker"
	apperrors "github.com/metll/metll-backend/pkg/errors"
	"gorm.io/gorm"
)

type WaitlistRepository interface {
	// FindByEmail returns (nil, nil) when no entry uses the address.
	FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)
	// Create inserts the entry. A second row for the same email fails with a CONFLICT AppError.
	Create(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry

	if err := wr.db.WithContext(ctx).Where("email = ?", email).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewDatabaseError("failed to look up waitlist entry", err)
	}

	return &entry, nil
}

func (wr *waitlistRepository) Create(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if err := wr.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.NewConflictError("waitlist entry with this email already exists", err)
		}
		return nil, apperrors.NewDatabaseError("unable to create waitlist entry", err)
	}

	return entry, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}

// circuitBreakingRepository fails fast while the store keeps erroring.
type circuitBreakingRepository struct {
	next    WaitlistRepository
	breaker circuitbreaker.CircuitBreaker
}

// NewCircuitBreakingRepository wraps next. Conflicts, missing rows and
// cancelled requests do not count against the circuit.
func NewCircuitBreakingRepository(next WaitlistRepository, cfg *circuitbreaker.Config) WaitlistRepository {
	if cfg == nil {
		cfg = circuitbreaker.DefaultConfig()
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = isInfrastructureFailure
	}

	return &circuitBreakingRepository{
		next:    next,
		breaker: circuitbreaker.NewCircuitBreaker(cfg),
	}
}

func isInfrastructureFailure(err error) bool {
	if apperrors.IsErrorType(err, apperrors.ErrorTypeConflict) || apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func (r *circuitBreakingRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry *models.WaitlistEntry

	err := r.breaker.Call(func() error {
		var err error
		entry, err = r.next.FindByEmail(ctx, email)
		return err
	})

	return entry, wrapOpenCircuit(err)
}

func (r *circuitBreakingRepository) Create(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	var created *models.WaitlistEntry

	err := r.breaker.Call(func() error {
		var err error
		created, err = r.next.Create(ctx, entry)
		return err
	})

	return created, wrapOpenCircuit(err)
}

func wrapOpenCircuit(err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return apperrors.NewServiceUnavailableError("waitlist store is unavailable", err)
	}
	return err
}
