package user

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, userID uint) (*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uint) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
	List(dbc dbctx.Context, offset, limit int) ([]*types.User, int64, error)
	UpdatePassword(dbc dbctx.Context, userID uint, passwordHash string) error
	UpdateAvatarKey(dbc dbctx.Context, userID uint, avatarKey string) error
	FullDeleteByIDs(dbc dbctx.Context, userIDs []uint) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := dbc.Conn(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID returns nil, nil when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, userID uint) (*types.User, error) {
	if userID == 0 {
		return nil, nil
	}
	var u types.User
	err := dbc.Conn(ur.db).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uint) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.Conn(ur.db).
		Where("id IN ?", userIDs).
		Order("username ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	if email == "" {
		return nil, nil
	}
	var u types.User
	err := dbc.Conn(ur.db).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	var count int64
	if err := dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns one page of users ordered by username plus the total count.
func (ur *userRepo) List(dbc dbctx.Context, offset, limit int) ([]*types.User, int64, error) {
	var total int64
	if err := dbc.Conn(ur.db).Model(&types.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*types.User
	if err := dbc.Conn(ur.db).
		Order("username ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (ur *userRepo) UpdatePassword(dbc dbctx.Context, userID uint, passwordHash string) error {
	return dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash).Error
}

func (ur *userRepo) UpdateAvatarKey(dbc dbctx.Context, userID uint, avatarKey string) error {
	return dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("avatar_key", avatarKey).Error
}

func (ur *userRepo) FullDeleteByIDs(dbc dbctx.Context, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return dbc.Conn(ur.db).
		Where("id IN ?", userIDs).
		Delete(&types.User{}).Error
}
