package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"clinic-queue.com/clinic-queue/internal/constants"
	apperrors "clinic-queue.com/clinic-queue/internal/errors"
	"clinic-queue.com/clinic-queue/internal/metrics"
	model "clinic-queue.com/clinic-queue/internal/models"
	"clinic-queue.com/clinic-queue/internal/queue"
	repository "clinic-queue.com/clinic-queue/internal/repositories"
)

const (
	defaultNumberRetries  = 5
	defaultAdvanceRetries = 3
	updateRetries         = 3

	timestampFallbackModulus = 100000
)

var errSequencerUnavailable = errors.New("token sequencer unavailable")

type QueueOptions struct {
	NumberRetries     int
	AdvanceRetries    int
	StrictTransitions bool
	TimestampFallback bool
}

// QueueService owns the single clinic queue: token numbering, status changes
// and the one serving slot.
type QueueService struct {
	repo      *repository.TokenRepository
	sequencer queue.NumberSequencer
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	opts      QueueOptions

	advanceMu sync.Mutex
	now       func() time.Time
}

// NewQueueService builds the queue. A nil sequencer numbers tokens from the
// store's current maximum.
func NewQueueService(
	repo *repository.TokenRepository,
	sequencer queue.NumberSequencer,
	logger *logrus.Logger,
	m *metrics.Metrics,
	opts QueueOptions,
) *QueueService {
	if opts.NumberRetries <= 0 {
		opts.NumberRetries = defaultNumberRetries
	}
	if opts.AdvanceRetries <= 0 {
		opts.AdvanceRetries = defaultAdvanceRetries
	}

	return &QueueService{
		repo:      repo,
		sequencer: sequencer,
		logger:    logger,
		metrics:   m,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *QueueService) CreateToken(ctx context.Context, patientName, phoneNumber string, isVIP bool) (*model.Token, error) {
	name, phone, err := normalizeTokenInput(patientName, phoneNumber)
	if err != nil {
		return nil, err
	}

	token := &model.Token{
		ID:          uuid.NewString(),
		PatientName: name,
		PhoneNumber: phone,
		IsVIP:       isVIP,
		Status:      constants.StatusWaiting,
		Version:     1,
		CreatedAt:   s.now(),
	}

	if err := s.insertNumbered(ctx, token); err != nil {
		s.logger.WithError(err).Error("token creation failed")
		return nil, err
	}

	s.metrics.TokenCreated(isVIP)
	s.logger.WithFields(logrus.Fields{
		"token_id":     token.ID,
		"token_number": token.TokenNumber,
		"vip":          token.IsVIP,
	}).Info("token created")

	return token, nil
}

// insertNumbered retries duplicate-number races internally. Callers only see
// ErrNumberGenerationFailed once the retry budget is spent.
func (s *QueueService) insertNumbered(ctx context.Context, token *model.Token) error {
	var lastErr error

	for attempt := 1; attempt <= s.opts.NumberRetries; attempt++ {
		var err error
		if s.sequencer != nil {
			err = s.insertFromSequencer(ctx, token)
		} else {
			err = s.repo.CreateWithNextNumber(ctx, token)
		}

		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrDuplicateTokenNumber):
			s.metrics.NumberConflict()
			s.logger.WithFields(logrus.Fields{
				"token_number": token.TokenNumber,
				"attempt":      attempt,
			}).Warn("token number conflict, retrying")
			s.resyncSequencer(ctx)
		case errors.Is(err, errSequencerUnavailable):
			s.logger.WithError(err).WithField("attempt", attempt).Warn("token sequencer failed")
		default:
			return apperrors.ErrNumberGenerationFailed.WithCause(err)
		}
		lastErr = err
	}

	if s.opts.TimestampFallback {
		err := s.insertWithTimestampNumber(ctx, token)
		if err == nil {
			s.logger.WithField("token_number", token.TokenNumber).Warn("token numbered from timestamp fallback")
			return nil
		}
		lastErr = err
	}

	return apperrors.ErrNumberGenerationFailed.WithCause(lastErr)
}

func (s *QueueService) insertFromSequencer(ctx context.Context, token *model.Token) error {
	n, err := s.sequencer.Next(ctx)
	if err != nil {
		return errors.Wrap(errSequencerUnavailable, err.Error())
	}

	token.TokenNumber = n
	return s.repo.CreateWithNumber(ctx, token)
}

// insertWithTimestampNumber is the last resort when the retry budget is
// spent. The candidate must still beat the current maximum and pass the
// unique index.
func (s *QueueService) insertWithTimestampNumber(ctx context.Context, token *model.Token) error {
	highest, err := s.repo.MaxTokenNumber(ctx)
	if err != nil {
		return err
	}

	candidate := s.now().Unix() % timestampFallbackModulus
	if candidate <= highest {
		return errors.Errorf("timestamp candidate %d is not above max token number %d", candidate, highest)
	}

	token.TokenNumber = candidate
	return s.repo.CreateWithNumber(ctx, token)
}

func (s *QueueService) resyncSequencer(ctx context.Context) {
	if s.sequencer == nil {
		return
	}
	if err := s.SyncSequencer(ctx); err != nil {
		s.logger.WithError(err).Warn("token sequencer resync failed")
	}
}

// SyncSequencer raises the external counter to the highest stored number.
func (s *QueueService) SyncSequencer(ctx context.Context) error {
	if s.sequencer == nil {
		return nil
	}

	highest, err := s.repo.MaxTokenNumber(ctx)
	if err != nil {
		return err
	}
	return s.sequencer.Resync(ctx, highest)
}

// Current returns the token being served, or nil when the slot is empty.
func (s *QueueService) Current(ctx context.Context) (*model.Token, error) {
	token, err := s.repo.FindServing(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return token, nil
}

// AdvanceNext completes the serving token and promotes the next waiting one,
// VIPs first and then by token number. It returns nil when nobody is waiting;
// the serving token is then left untouched.
func (s *QueueService) AdvanceNext(ctx context.Context) (*model.Token, error) {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	for attempt := 1; attempt <= s.opts.AdvanceRetries; attempt++ {
		token, err := s.repo.Advance(ctx)
		if err == nil {
			s.metrics.Advanced(token != nil)
			if token == nil {
				s.logger.Debug("advance: no token waiting")
				return nil, nil
			}
			s.logger.WithFields(logrus.Fields{
				"token_id":     token.ID,
				"token_number": token.TokenNumber,
				"vip":          token.IsVIP,
			}).Info("token now serving")
			return token, nil
		}

		if !errors.Is(err, repository.ErrOptimisticLock) {
			return nil, storeError(err)
		}
		s.logger.WithField("attempt", attempt).Warn("advance lost queue race, retrying")
	}

	return nil, apperrors.ErrAdvanceConflict
}

func (s *QueueService) UpdateStatus(ctx context.Context, id string, status constants.TokenStatus) (*model.Token, error) {
	if _, ok := constants.ParseTokenStatus(string(status)); !ok {
		return nil, apperrors.NewValidationError(map[string]string{
			"status": fmt.Sprintf("%q is not a valid status", status),
		})
	}

	token, err := s.updateWithRetry(ctx, id, func(token *model.Token) (bool, error) {
		if token.Status.IsTerminal() && token.Status != status {
			return false, apperrors.ErrInvalidTransition.WithFields(map[string]string{
				"status": fmt.Sprintf("%s is final", token.Status),
			})
		}
		if s.opts.StrictTransitions && !constants.CanTransition(token.Status, status) {
			return false, apperrors.ErrInvalidTransition.WithFields(map[string]string{
				"status": fmt.Sprintf("cannot move from %s to %s", token.Status, status),
			})
		}
		if token.Status == status {
			return false, nil
		}

		now := s.now()
		token.Status = status
		if status == constants.StatusServing && token.ServedAt == nil {
			token.ServedAt = &now
		}
		if status.IsTerminal() {
			token.CompletedAt = &now
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusUpdated(status)
	s.logger.WithFields(logrus.Fields{
		"token_id":     token.ID,
		"token_number": token.TokenNumber,
		"status":       token.Status,
	}).Info("token status updated")

	return token, nil
}

func (s *QueueService) SetVIP(ctx context.Context, id string, isVIP bool) (*model.Token, error) {
	token, err := s.updateWithRetry(ctx, id, func(token *model.Token) (bool, error) {
		if token.IsVIP == isVIP {
			return false, nil
		}
		token.IsVIP = isVIP
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"token_id":     token.ID,
		"token_number": token.TokenNumber,
		"vip":          token.IsVIP,
	}).Info("token vip flag updated")

	return token, nil
}

// updateWithRetry loads the token, lets mutate change it and writes it back
// under the version check, reloading on conflict.
func (s *QueueService) updateWithRetry(
	ctx context.Context,
	id string,
	mutate func(token *model.Token) (bool, error),
) (*model.Token, error) {
	if id == "" {
		return nil, apperrors.ErrTokenIDRequired
	}

	for attempt := 1; attempt <= updateRetries; attempt++ {
		token, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, storeError(err)
		}

		changed, err := mutate(token)
		if err != nil {
			return nil, err
		}
		if !changed {
			return token, nil
		}

		err = s.repo.Update(ctx, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return nil, storeError(err)
		}
		s.logger.WithFields(logrus.Fields{
			"token_id": id,
			"attempt":  attempt,
		}).Warn("optimistic lock conflict updating token")
	}

	return nil, apperrors.ErrOptimisticLock
}

func (s *QueueService) ListTokens(ctx context.Context) ([]model.Token, error) {
	tokens, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return tokens, nil
}

// ListWaiting returns waiting tokens in the order they will be served.
func (s *QueueService) ListWaiting(ctx context.Context) ([]model.Token, error) {
	tokens, err := s.repo.ListWaiting(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return tokens, nil
}

type HealthReport struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Sequencer string    `json:"sequencer"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *QueueService) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:    "healthy",
		Database:  "connected",
		Sequencer: "database",
		Timestamp: s.now(),
	}

	if err := s.repo.Ping(ctx); err != nil {
		report.Status = "unhealthy"
		report.Database = "disconnected"
	}

	if s.sequencer != nil {
		report.Sequencer = "connected"
		if err := s.sequencer.Ping(ctx); err != nil {
			report.Status = "unhealthy"
			report.Sequencer = "disconnected"
		}
	}

	return report
}

func storeError(err error) error {
	if _, ok := apperrors.AsException(err); ok {
		return err
	}
	return apperrors.ErrStoreUnavailable.WithCause(err)
}
