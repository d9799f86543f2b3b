package waitlist

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/metll/metll-backend/internal/log"
	apperrors "github.com/metll/metll-backend/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MessageJoined             = "Successfully joined the waitlist!"
	MessageAlreadyOnWaitlist  = "This email is already on the waitlist"
	MessageJoinFailed         = "Failed to join waitlist. Please try again later."
	MessageInvalidRequestBody = "Invalid request body"
)

const (
	outcomeCreated  = "created"
	outcomeInvalid  = "invalid"
	outcomeConflict = "conflict"
	outcomeError    = "error"
)

var tracer = otel.Tracer("github.com/metll/metll-backend/domain/waitlist")

type WaitlistService interface {
	// SubmitEntry validates the request, rejects known emails and stores a new entry.
	SubmitEntry(ctx context.Context, req *JoinWaitlistRequest) (*WaitlistEntryResponse, error)
}

type waitlistService struct {
	logger      *log.Logger
	repository  WaitlistRepository
	validate    *validator.Validate
	submissions *prometheus.CounterVec
}

// NewWaitlistService registers waitlist_submissions_total on reg when reg is non-nil.
func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, reg prometheus.Registerer) WaitlistService {
	return &waitlistService{
		logger:      logger,
		repository:  repository,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		submissions: newSubmissionsCounter(reg),
	}
}

func newSubmissionsCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_submissions_total",
			Help: "Waitlist submissions by outcome.",
		},
		[]string{"outcome"},
	)

	if reg == nil {
		return counter
	}

	if err := reg.Register(counter); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}

	return counter
}

func (s *waitlistService) SubmitEntry(ctx context.Context, req *JoinWaitlistRequest) (*WaitlistEntryResponse, error) {
	ctx, span := tracer.Start(ctx, "WaitlistService.SubmitEntry")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Warn("SubmitEntry received empty request")
		s.finish(span, outcomeInvalid)
		return nil, apperrors.NewInvalidRequestError(MessageInvalidRequestBody, nil)
	}

	input := *req
	input.Normalize()

	if err := s.validate.StructCtx(ctx, &input); err != nil {
		message := apperrors.FirstValidationMessage(err, &input)
		if message == "" {
			message = MessageInvalidRequestBody
		}
		logger.Info("Waitlist submission rejected", "reason", message)
		s.finish(span, outcomeInvalid)
		return nil, apperrors.NewInvalidRequestError(message, err)
	}

	existing, err := s.repository.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to look up waitlist entry", err)
	}

	if existing != nil {
		logger.Info("Waitlist email already registered", "entry_id", existing.ID)
		s.finish(span, outcomeConflict)
		return nil, apperrors.NewConflictError(MessageAlreadyOnWaitlist, nil)
	}

	entry, err := s.repository.Create(ctx, ToWaitlistEntryModel(&input))
	if err != nil {
		if apperrors.IsErrorType(err, apperrors.ErrorTypeConflict) {
			logger.Info("Waitlist email registered concurrently", "error", err)
			s.finish(span, outcomeConflict)
			return nil, apperrors.NewConflictError(MessageAlreadyOnWaitlist, err)
		}
		return nil, s.fail(ctx, span, "Failed to create waitlist entry", err)
	}

	logger.Info("Waitlist entry created", "entry_id", entry.ID)
	s.finish(span, outcomeCreated)

	response := ToWaitlistEntryResponse(entry)
	return &response, nil
}

func (s *waitlistService) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	log.GetLoggerInstanceFromContext(ctx, s.logger).Error(msg, "error", err)

	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.finish(span, outcomeError)

	return apperrors.NewInternalServerError(MessageJoinFailed, err)
}

func (s *waitlistService) finish(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String("waitlist.outcome", outcome))
	s.submissions.WithLabelValues(outcome).Inc()
}
