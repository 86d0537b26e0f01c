package conversation

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, row *conversation.Message) (*conversation.Message, error)
	// ListByThread returns messages in ascending seq order. limit <= 0 means
	// no limit; a positive limit keeps the NEWEST rows.
	ListByThread(dbc dbctx.Context, threadID uint, limit int) ([]*conversation.Message, error)
	CountByThread(dbc dbctx.Context, threadID uint) (int64, error)
	DeleteByThread(dbc dbctx.Context, threadID uint) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, row *conversation.Message) (*conversation.Message, error) {
	if row == nil {
		return nil, fmt.Errorf("missing message row")
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

func (r *messageRepo) ListByThread(dbc dbctx.Context, threadID uint, limit int) ([]*conversation.Message, error) {
	if threadID == 0 {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*conversation.Message
	q := txx.WithContext(dbc.Ctx).
		Model(&conversation.Message{}).
		Where("thread_id = ?", threadID)
	if limit > 0 {
		// Newest rows, then normalize back to ascending order.
		if err := q.Order("seq DESC").Limit(limit).Find(&out).Error; err != nil {
			return nil, err
		}
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out, nil
	}
	if err := q.Order("seq ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) CountByThread(dbc dbctx.Context, threadID uint) (int64, error) {
	if threadID == 0 {
		return 0, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&conversation.Message{}).
		Where("thread_id = ?", threadID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *messageRepo) DeleteByThread(dbc dbctx.Context, threadID uint) error {
	if threadID == 0 {
		return fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Delete(&conversation.Message{}).Error
}
