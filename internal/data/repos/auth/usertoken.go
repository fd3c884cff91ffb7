package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error)
	GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uint) ([]*types.UserToken, error)
	FullDeleteByAccessTokens(dbc dbctx.Context, accessTokens []string) error
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uint) error
	FullDeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	repoLog := baseLog.With("repo", "UserTokenRepo")
	return &userTokenRepo{db: db, log: repoLog}
}

func (utr *userTokenRepo) Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error) {
	if len(userTokens) == 0 {
		return []*types.UserToken{}, nil
	}
	if err := dbc.Conn(utr.db).Create(&userTokens).Error; err != nil {
		return nil, err
	}
	return userTokens, nil
}

// GetByAccessToken returns nil, nil for unknown or logged-out tokens.
func (utr *userTokenRepo) GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error) {
	if accessToken == "" {
		return nil, nil
	}
	var tok types.UserToken
	err := dbc.Conn(utr.db).Where("access_token = ?", accessToken).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (utr *userTokenRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uint) ([]*types.UserToken, error) {
	var results []*types.UserToken
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.Conn(utr.db).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (utr *userTokenRepo) FullDeleteByAccessTokens(dbc dbctx.Context, accessTokens []string) error {
	if len(accessTokens) == 0 {
		return nil
	}
	return dbc.Conn(utr.db).
		Where("access_token IN ?", accessTokens).
		Delete(&types.UserToken{}).Error
}

func (utr *userTokenRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return dbc.Conn(utr.db).
		Where("user_id IN ?", userIDs).
		Delete(&types.UserToken{}).Error
}

func (utr *userTokenRepo) FullDeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.Conn(utr.db).
		Where("expires_at < ?", now).
		Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}
