package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/pkg/validation"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
)

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128,notnumeric"`
}

type SetPasswordInput struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128,notnumeric"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

const (
	msgEmailTaken    = "A user with that email already exists."
	msgUsernameTaken = "A user with that username already exists."
)

type UserService interface {
	Register(dbc dbctx.Context, in RegisterInput) (*types.User, error)
	GetByID(dbc dbctx.Context, id uint) (*types.User, error)
	GetMe(dbc dbctx.Context) (*types.User, error)
	List(dbc dbctx.Context, offset, limit int) ([]*types.User, int64, error)
	SetPassword(dbc dbctx.Context, in SetPasswordInput) error
	// SubscribedFlags reports which authorIDs the caller follows; empty for anonymous callers.
	SubscribedFlags(dbc dbctx.Context, authorIDs []uint) (map[uint]bool, error)
	// Delete removes the user and everything they own.
	Delete(dbc dbctx.Context, userID uint) error
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	tokenRepo     repos.UserTokenRepo
	subRepo       repos.SubscriptionRepo
	favorites     repos.RecipeRelationRepo
	cart          repos.RecipeRelationRepo
	jobRepo       repos.JobRunRepo
	eventRepo     repos.JobRunEventRepo
	recipeService RecipeService
	store         objectstorage.Store
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	tokenRepo repos.UserTokenRepo,
	subRepo repos.SubscriptionRepo,
	favorites repos.RecipeRelationRepo,
	cart repos.RecipeRelationRepo,
	jobRepo repos.JobRunRepo,
	eventRepo repos.JobRunEventRepo,
	recipeService RecipeService,
	store objectstorage.Store,
) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		subRepo:       subRepo,
		favorites:     favorites,
		cart:          cart,
		jobRepo:       jobRepo,
		eventRepo:     eventRepo,
		recipeService: recipeService,
		store:         store,
	}
}

func (us *userService) Register(dbc dbctx.Context, in RegisterInput) (*types.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	verr := validation.Struct(&in)
	if verr == nil {
		verr = pkgerrors.NewValidationError()
	}
	if err := us.checkTaken(dbc, in, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &types.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}
	if _, err := us.userRepo.Create(dbc, []*types.User{user}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration.
			raced := pkgerrors.NewValidationError()
			if cerr := us.checkTaken(dbc, in, raced); cerr != nil {
				return nil, cerr
			}
			if raced.Empty() {
				raced.Add("email", msgEmailTaken)
			}
			return nil, raced
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	us.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (us *userService) checkTaken(dbc dbctx.Context, in RegisterInput, verr *pkgerrors.ValidationError) error {
	if in.Email != "" && len(verr.Fields["email"]) == 0 {
		taken, err := us.userRepo.EmailExists(dbc, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			verr.Add("email", msgEmailTaken)
		}
	}
	if in.Username != "" && len(verr.Fields["username"]) == 0 {
		taken, err := us.userRepo.UsernameExists(dbc, in.Username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			verr.Add("username", msgUsernameTaken)
		}
	}
	return nil
}

func (us *userService) GetByID(dbc dbctx.Context, id uint) (*types.User, error) {
	user, err := us.userRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return user, nil
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		us.log.Warn("Request data not set in context")
		return nil, pkgerrors.ErrUnauthorized
	}
	user, err := us.GetByID(dbc, userID)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, pkgerrors.ErrUnauthorized
	}
	return user, err
}

func (us *userService) List(dbc dbctx.Context, offset, limit int) ([]*types.User, int64, error) {
	users, total, err := us.userRepo.List(dbc, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (us *userService) SetPassword(dbc dbctx.Context, in SetPasswordInput) error {
	user, err := us.GetMe(dbc)
	if err != nil {
		return err
	}
	verr := validation.Struct(&in)
	if verr == nil {
		verr = pkgerrors.NewValidationError()
	}
	if in.CurrentPassword != "" && !CheckPassword(user.Password, in.CurrentPassword) {
		verr.Add("current_password", "Wrong current password.")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := us.userRepo.UpdatePassword(dbc, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	us.log.Info("Password changed", "user_id", user.ID)
	return nil
}

func (us *userService) SubscribedFlags(dbc dbctx.Context, authorIDs []uint) (map[uint]bool, error) {
	viewer := ctxutil.UserID(dbc.Ctx)
	if viewer == 0 || len(authorIDs) == 0 {
		return map[uint]bool{}, nil
	}
	flags, err := us.subRepo.SubscribedAuthorIDs(dbc, viewer, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load subscription flags: %w", err)
	}
	return flags, nil
}

func (us *userService) Delete(dbc dbctx.Context, userID uint) error {
	user, err := us.GetByID(dbc, userID)
	if err != nil {
		return err
	}
	ids := []uint{user.ID}
	var imageKeys []string
	err = us.db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		keys, err := us.recipeService.PurgeByAuthors(txc, ids)
		if err != nil {
			return err
		}
		imageKeys = keys
		if err := us.favorites.FullDeleteByUserIDs(txc, ids); err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		if err := us.cart.FullDeleteByUserIDs(txc, ids); err != nil {
			return fmt.Errorf("delete cart rows: %w", err)
		}
		if err := us.subRepo.FullDeleteByUserIDs(txc, ids); err != nil {
			return fmt.Errorf("delete subscriptions: %w", err)
		}
		if err := us.tokenRepo.FullDeleteByUserIDs(txc, ids); err != nil {
			return fmt.Errorf("delete tokens: %w", err)
		}
		if err := us.eventRepo.FullDeleteByOwnerIDs(txc, ids); err != nil {
			return fmt.Errorf("delete job events: %w", err)
		}
		if err := us.jobRepo.FullDeleteByOwnerIDs(txc, ids); err != nil {
			return fmt.Errorf("delete jobs: %w", err)
		}
		if err := us.userRepo.FullDeleteByIDs(txc, ids); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	us.recipeService.DeleteImages(dbc, imageKeys)
	if user.AvatarKey != "" {
		if err := us.store.DeleteFile(dbctx.Context{Ctx: dbc.Ctx}, objectstorage.CategoryAvatar, user.AvatarKey); err != nil {
			us.log.Warn("failed to delete avatar object (ignored)", "key", user.AvatarKey, "error", err)
		}
	}
	us.log.Info("User deleted", "user_id", user.ID, "recipes", len(imageKeys))
	return nil
}
