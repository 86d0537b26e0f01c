package conversation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
)

type ThreadRepo interface {
	Create(dbc dbctx.Context, row *conversation.Thread) (*conversation.Thread, error)
	GetByToken(dbc dbctx.Context, token string) (*conversation.Thread, error)
	// ListByUser orders by last_message_at descending; limit <= 0 returns all.
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*conversation.Thread, error)
	// LockByToken takes the thread row lock; requires dbc.Tx.
	LockByToken(dbc dbctx.Context, token string) (*conversation.Thread, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error
	DeleteByID(dbc dbctx.Context, id uint) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: log.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(dbc dbctx.Context, row *conversation.Thread) (*conversation.Thread, error) {
	if row == nil {
		return nil, fmt.Errorf("missing thread row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *threadRepo) GetByToken(dbc dbctx.Context, token string) (*conversation.Thread, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out conversation.Thread
	if err := txx.WithContext(dbc.Ctx).
		Where("token = ?", token).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *threadRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*conversation.Thread, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&conversation.Thread{}).
		Where("user_id = ?", userID).
		Order("last_message_at DESC")
	// limit <= 0 lists every thread the user owns.
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*conversation.Thread
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *threadRepo) LockByToken(dbc dbctx.Context, token string) (*conversation.Thread, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByToken requires dbc.Tx")
	}
	q := dbc.Tx.WithContext(dbc.Ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out conversation.Thread
	if err := q.Where("token = ?", token).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *threadRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	if id == 0 {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&conversation.Thread{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *threadRepo) DeleteByID(dbc dbctx.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&conversation.Thread{}).Error
}
