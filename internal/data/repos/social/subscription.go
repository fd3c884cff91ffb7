package social

import (
	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type SubscriptionRepo interface {
	Create(dbc dbctx.Context, userID, authorID uint) error
	Delete(dbc dbctx.Context, userID, authorID uint) (bool, error)
	Exists(dbc dbctx.Context, userID, authorID uint) (bool, error)
	SubscribedAuthorIDs(dbc dbctx.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
	ListAuthors(dbc dbctx.Context, userID uint, offset, limit int) ([]*types.User, int64, error)
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uint) error
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{
		db:  db,
		log: baseLog.With("repo", "SubscriptionRepo"),
	}
}

// Create surfaces a duplicate pair as gorm.ErrDuplicatedKey. The CHECK
// constraint rejects self subscriptions; callers validate that first.
func (r *subscriptionRepo) Create(dbc dbctx.Context, userID, authorID uint) error {
	return dbc.Conn(r.db).
		Omit("User", "Author").
		Create(&types.Subscription{UserID: userID, AuthorID: authorID}).Error
}

func (r *subscriptionRepo) Delete(dbc dbctx.Context, userID, authorID uint) (bool, error) {
	res := dbc.Conn(r.db).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&types.Subscription{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepo) Exists(dbc dbctx.Context, userID, authorID uint) (bool, error) {
	var count int64
	if err := dbc.Conn(r.db).
		Model(&types.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *subscriptionRepo) SubscribedAuthorIDs(dbc dbctx.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	out := map[uint]bool{}
	if userID == 0 || len(authorIDs) == 0 {
		return out, nil
	}
	var found []uint
	if err := dbc.Conn(r.db).
		Model(&types.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

// ListAuthors pages through the authors userID follows, ordered by username.
func (r *subscriptionRepo) ListAuthors(dbc dbctx.Context, userID uint, offset, limit int) ([]*types.User, int64, error) {
	base := func() *gorm.DB {
		return dbc.Conn(r.db).
			Model(&types.User{}).
			Joins("JOIN subscription ON subscription.author_id = users.id").
			Where("subscription.user_id = ?", userID)
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.User
	if err := base().
		Order("users.username ASC").
		Order("users.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FullDeleteByUserIDs removes subscriptions in both directions.
func (r *subscriptionRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Where("user_id IN ? OR author_id IN ?", userIDs, userIDs).
		Delete(&types.Subscription{}).Error
}
