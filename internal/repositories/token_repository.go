package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"clinic-queue.com/clinic-queue/internal/constants"
	apperrors "clinic-queue.com/clinic-queue/internal/errors"
	model "clinic-queue.com/clinic-queue/internal/models"
)

type TokenRepository struct {
	db *gorm.DB
}

var (
	ErrOptimisticLock       = errors.New("optimistic locking conflict")
	ErrDuplicateTokenNumber = errors.New("token number already assigned")
)

// serveOrder is the order waiting tokens are promoted in.
const serveOrder = "is_vip desc, token_number asc"

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateWithNextNumber assigns max(token_number)+1 and inserts the token in
// one transaction. A concurrent insert that took the same number surfaces as
// ErrDuplicateTokenNumber and the whole transaction is rolled back.
func (r *TokenRepository) CreateWithNextNumber(ctx context.Context, token *model.Token) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		highest, err := maxTokenNumber(tx)
		if err != nil {
			return err
		}

		token.TokenNumber = highest + 1
		return tx.Create(token).Error
	})

	return translateInsertError(err)
}

// CreateWithNumber inserts the token with a number chosen by the caller.
func (r *TokenRepository) CreateWithNumber(ctx context.Context, token *model.Token) error {
	return translateInsertError(r.db.WithContext(ctx).Create(token).Error)
}

func (r *TokenRepository) MaxTokenNumber(ctx context.Context) (int64, error) {
	return maxTokenNumber(r.db.WithContext(ctx))
}

func maxTokenNumber(db *gorm.DB) (int64, error) {
	var highest int64
	err := db.Model(&model.Token{}).
		Select("COALESCE(MAX(token_number), 0)").
		Scan(&highest).Error
	if err != nil {
		return 0, errors.Wrap(err, "read max token number")
	}
	return highest, nil
}

func (r *TokenRepository) FindByID(ctx context.Context, id string) (*model.Token, error) {
	var token model.Token
	err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// FindServing returns nil without an error when nobody is being served.
func (r *TokenRepository) FindServing(ctx context.Context) (*model.Token, error) {
	var tokens []model.Token
	err := r.db.WithContext(ctx).
		Where("status = ?", constants.StatusServing).
		Order("token_number asc").
		Limit(1).
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return &tokens[0], nil
}

func (r *TokenRepository) List(ctx context.Context) ([]model.Token, error) {
	var tokens []model.Token
	err := r.db.WithContext(ctx).Order("token_number asc").Find(&tokens).Error
	return tokens, err
}

func (r *TokenRepository) ListWaiting(ctx context.Context) ([]model.Token, error) {
	var tokens []model.Token
	err := r.db.WithContext(ctx).
		Where("status = ?", constants.StatusWaiting).
		Order(serveOrder).
		Find(&tokens).Error
	return tokens, err
}

func (r *TokenRepository) Update(ctx context.Context, token *model.Token) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.Token{}).
		Where("id = ? AND version = ?", token.ID, token.Version).
		Updates(map[string]interface{}{
			"is_vip":       token.IsVIP,
			"status":       token.Status,
			"served_at":    token.ServedAt,
			"completed_at": token.CompletedAt,
			"updated_at":   now,
			"version":      gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrOptimisticLock
	}

	token.Version++
	token.UpdatedAt = now
	return nil
}

// Advance completes every serving token and promotes the head of the waiting
// set in a single transaction. It returns nil when nobody is waiting, in which
// case nothing is written. ErrOptimisticLock means another advance won the
// race, or held the sqlite write lock past the busy timeout, and the
// transaction was rolled back.
func (r *TokenRepository) Advance(ctx context.Context) (*model.Token, error) {
	var promoted *model.Token

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state model.QueueState
		if err := tx.First(&state, model.QueueStateID).Error; err != nil {
			return errors.Wrap(err, "load queue state")
		}

		var candidates []model.Token
		err := tx.Where("status = ?", constants.StatusWaiting).
			Order(serveOrder).
			Limit(1).
			Find(&candidates).Error
		if err != nil {
			return errors.Wrap(err, "select next waiting token")
		}
		if len(candidates) == 0 {
			return nil
		}
		next := candidates[0]
		now := time.Now().UTC()

		err = tx.Model(&model.Token{}).
			Where("status = ?", constants.StatusServing).
			Updates(map[string]interface{}{
				"status":       constants.StatusCompleted,
				"completed_at": now,
				"updated_at":   now,
				"version":      gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return errors.Wrap(err, "complete serving tokens")
		}

		res := tx.Model(&model.Token{}).
			Where("id = ? AND status = ?", next.ID, constants.StatusWaiting).
			Updates(map[string]interface{}{
				"status":     constants.StatusServing,
				"served_at":  now,
				"updated_at": now,
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "promote next token")
		}
		if res.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		res = tx.Model(&model.QueueState{}).
			Where("id = ? AND version = ?", state.ID, state.Version).
			Updates(map[string]interface{}{
				"serving_token_id": next.ID,
				"last_advanced_at": now,
				"updated_at":       now,
				"version":          gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "swap queue version")
		}
		if res.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		next.Status = constants.StatusServing
		next.ServedAt = &now
		next.UpdatedAt = now
		next.Version++
		promoted = &next
		return nil
	})
	if err != nil {
		if isLockContention(err) {
			return nil, ErrOptimisticLock
		}
		return nil, err
	}

	return promoted, nil
}

func (r *TokenRepository) QueueState(ctx context.Context) (*model.QueueState, error) {
	var state model.QueueState
	if err := r.db.WithContext(ctx).First(&state, model.QueueStateID).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *TokenRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translateInsertError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errors.Wrap(ErrDuplicateTokenNumber, err.Error())
	}
	return err
}

// isLockContention reports sqlite's busy errors, raised when another
// connection holds the write lock longer than the busy timeout.
func isLockContention(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
