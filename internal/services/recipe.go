package services

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/pkg/validation"
	"github.com/yungbote/foodgram-backend/internal/platform/apierr"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
)

const recipeNameMaxLen = 256

type RecipeIngredientInput struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"min=1"`
}

// RecipeInput is the write payload for create and update. A nil field was
// absent from the request.
type RecipeInput struct {
	Ingredients []RecipeIngredientInput `json:"ingredients"`
	Image       *string                 `json:"image"`
	Name        *string                 `json:"name"`
	Text        *string                 `json:"text"`
	CookingTime *int                    `json:"cooking_time"`
}

// RecipeFlags carries the viewer's favorite and cart membership per recipe id.
type RecipeFlags struct {
	Favorited map[uint]bool
	InCart    map[uint]bool
}

type RecipeService interface {
	Create(dbc dbctx.Context, in RecipeInput) (*types.Recipe, error)
	Update(dbc dbctx.Context, id uint, in RecipeInput) (*types.Recipe, error)
	Delete(dbc dbctx.Context, id uint) error
	Get(dbc dbctx.Context, id uint) (*types.Recipe, error)
	List(dbc dbctx.Context, filter repos.RecipeListFilter, offset, limit int) ([]*types.Recipe, int64, error)
	Flags(dbc dbctx.Context, recipeIDs []uint) (RecipeFlags, error)
	ShortLink(dbc dbctx.Context, id uint) (string, error)
	ImageURL(recipe *types.Recipe) string

	// PurgeByAuthors deletes every recipe of authorIDs with its associations
	// inside dbc's transaction and returns the image keys to remove after commit.
	PurgeByAuthors(dbc dbctx.Context, authorIDs []uint) ([]string, error)
	DeleteImages(dbc dbctx.Context, keys []string)
}

type recipeService struct {
	db            *gorm.DB
	log           *logger.Logger
	recipeRepo    repos.RecipeRepo
	riRepo        repos.RecipeIngredientRepo
	ingredients   repos.IngredientRepo
	favorites     repos.RecipeRelationRepo
	cart          repos.RecipeRelationRepo
	store         objectstorage.Store
	publicBaseURL string
}

func NewRecipeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	recipeRepo repos.RecipeRepo,
	riRepo repos.RecipeIngredientRepo,
	ingredients repos.IngredientRepo,
	favorites repos.RecipeRelationRepo,
	cart repos.RecipeRelationRepo,
	store objectstorage.Store,
	publicBaseURL string,
) RecipeService {
	return &recipeService{
		db:            db,
		log:           baseLog.With("service", "RecipeService"),
		recipeRepo:    recipeRepo,
		riRepo:        riRepo,
		ingredients:   ingredients,
		favorites:     favorites,
		cart:          cart,
		store:         store,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

var errNotAuthor = apierr.Forbidden(
	pkgerrors.WithMessage(pkgerrors.ErrForbidden, "Only the author can change this recipe."))

func (s *recipeService) Create(dbc dbctx.Context, in RecipeInput) (*types.Recipe, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return nil, pkgerrors.ErrUnauthorized
	}
	img, err := s.validate(dbc, in, false)
	if err != nil {
		return nil, err
	}

	rec := &types.Recipe{
		AuthorID:    userID,
		Name:        strings.TrimSpace(*in.Name),
		Text:        *in.Text,
		CookingTime: *in.CookingTime,
		ImageKey:    img.NewObjectKey(""),
	}
	uploaded := false
	err = s.db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		if err := s.recipeRepo.Create(txc, rec); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if _, err := s.riRepo.Create(txc, associationRows(rec.ID, in.Ingredients)); err != nil {
			return fmt.Errorf("create recipe ingredients: %w", err)
		}
		if err := s.store.UploadFile(txc, objectstorage.CategoryRecipe, rec.ImageKey, bytes.NewReader(img.Data)); err != nil {
			return fmt.Errorf("upload recipe image: %w", err)
		}
		uploaded = true
		return nil
	})
	if err != nil {
		if uploaded {
			s.DeleteImages(dbc, []string{rec.ImageKey})
		}
		return nil, err
	}
	s.log.Info("Recipe created", "recipe_id", rec.ID, "author_id", userID)
	return s.Get(dbctx.Context{Ctx: dbc.Ctx}, rec.ID)
}

func (s *recipeService) Update(dbc dbctx.Context, id uint, in RecipeInput) (*types.Recipe, error) {
	rec, err := s.authorOwned(dbc, id)
	if err != nil {
		return nil, err
	}
	img, err := s.validate(dbc, in, true)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Text != nil {
		updates["text"] = *in.Text
	}
	if in.CookingTime != nil {
		updates["cooking_time"] = *in.CookingTime
	}
	oldKey := rec.ImageKey
	newKey := img.NewObjectKey("")
	updates["image_key"] = newKey

	uploaded := false
	err = s.db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		if err := s.recipeRepo.UpdateFields(txc, rec.ID, updates); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		if err := s.riRepo.FullDeleteByRecipeIDs(txc, []uint{rec.ID}); err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		if _, err := s.riRepo.Create(txc, associationRows(rec.ID, in.Ingredients)); err != nil {
			return fmt.Errorf("create recipe ingredients: %w", err)
		}
		if err := s.store.UploadFile(txc, objectstorage.CategoryRecipe, newKey, bytes.NewReader(img.Data)); err != nil {
			return fmt.Errorf("upload recipe image: %w", err)
		}
		uploaded = true
		return nil
	})
	if err != nil {
		if uploaded {
			s.DeleteImages(dbc, []string{newKey})
		}
		return nil, err
	}
	if oldKey != "" && oldKey != newKey {
		s.DeleteImages(dbc, []string{oldKey})
	}
	s.log.Info("Recipe updated", "recipe_id", rec.ID)
	return s.Get(dbctx.Context{Ctx: dbc.Ctx}, rec.ID)
}

func (s *recipeService) Delete(dbc dbctx.Context, id uint) error {
	rec, err := s.authorOwned(dbc, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		return s.deleteRecipes(dbc.WithTx(tx), []uint{rec.ID})
	})
	if err != nil {
		return err
	}
	s.DeleteImages(dbc, []string{rec.ImageKey})
	s.log.Info("Recipe deleted", "recipe_id", rec.ID)
	return nil
}

func (s *recipeService) deleteRecipes(dbc dbctx.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.favorites.FullDeleteByRecipeIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	if err := s.cart.FullDeleteByRecipeIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete cart rows: %w", err)
	}
	if err := s.riRepo.FullDeleteByRecipeIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete recipe ingredients: %w", err)
	}
	if err := s.recipeRepo.FullDeleteByIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete recipes: %w", err)
	}
	return nil
}

func (s *recipeService) PurgeByAuthors(dbc dbctx.Context, authorIDs []uint) ([]string, error) {
	recs, err := s.recipeRepo.ListByAuthors(dbc, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("list recipes by authors: %w", err)
	}
	ids := make([]uint, 0, len(recs))
	keys := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
		if r.ImageKey != "" {
			keys = append(keys, r.ImageKey)
		}
	}
	if err := s.deleteRecipes(dbc, ids); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteImages removes image objects best-effort; failures are only logged.
func (s *recipeService) DeleteImages(dbc dbctx.Context, keys []string) {
	for _, k := range keys {
		if err := s.store.DeleteFile(dbctx.Context{Ctx: dbc.Ctx}, objectstorage.CategoryRecipe, k); err != nil {
			s.log.Warn("failed to delete recipe image (ignored)", "key", k, "error", err)
		}
	}
}

func (s *recipeService) Get(dbc dbctx.Context, id uint) (*types.Recipe, error) {
	rec, err := s.recipeRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}
	if rec == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return rec, nil
}

func (s *recipeService) authorOwned(dbc dbctx.Context, id uint) (*types.Recipe, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return nil, pkgerrors.ErrUnauthorized
	}
	rec, err := s.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if rec.AuthorID != userID {
		return nil, errNotAuthor
	}
	return rec, nil
}

// List applies membership filters only for an authenticated viewer.
func (s *recipeService) List(dbc dbctx.Context, filter repos.RecipeListFilter, offset, limit int) ([]*types.Recipe, int64, error) {
	filter.ViewerID = ctxutil.UserID(dbc.Ctx)
	recs, total, err := s.recipeRepo.List(dbc, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	return recs, total, nil
}

func (s *recipeService) Flags(dbc dbctx.Context, recipeIDs []uint) (RecipeFlags, error) {
	flags := RecipeFlags{Favorited: map[uint]bool{}, InCart: map[uint]bool{}}
	viewer := ctxutil.UserID(dbc.Ctx)
	if viewer == 0 || len(recipeIDs) == 0 {
		return flags, nil
	}
	fav, err := s.favorites.MemberRecipeIDs(dbc, viewer, recipeIDs)
	if err != nil {
		return flags, fmt.Errorf("load favorite flags: %w", err)
	}
	cart, err := s.cart.MemberRecipeIDs(dbc, viewer, recipeIDs)
	if err != nil {
		return flags, fmt.Errorf("load cart flags: %w", err)
	}
	flags.Favorited = fav
	flags.InCart = cart
	return flags, nil
}

func (s *recipeService) ShortLink(dbc dbctx.Context, id uint) (string, error) {
	ok, err := s.recipeRepo.Exists(dbc, id)
	if err != nil {
		return "", fmt.Errorf("check recipe: %w", err)
	}
	if !ok {
		return "", pkgerrors.ErrNotFound
	}
	return fmt.Sprintf("%s/recipes/%d/", s.publicBaseURL, id), nil
}

func (s *recipeService) ImageURL(recipe *types.Recipe) string {
	if recipe == nil || recipe.ImageKey == "" {
		return ""
	}
	return s.store.GetPublicURL(objectstorage.CategoryRecipe, recipe.ImageKey)
}

// validate checks the whole payload and returns the decoded image. partial
// relaxes name, text and cooking_time only; image and ingredients are always
// required.
func (s *recipeService) validate(dbc dbctx.Context, in RecipeInput, partial bool) (*ImagePayload, error) {
	verr := pkgerrors.NewValidationError()

	var img *ImagePayload
	if in.Image == nil || strings.TrimSpace(*in.Image) == "" {
		verr.Add("image", "Image is required.")
	} else {
		decoded, err := DecodeImagePayload(*in.Image)
		if err != nil {
			verr.Add("image", "Upload a valid image.")
		}
		img = decoded
	}

	if !partial || in.Name != nil {
		switch {
		case in.Name == nil || strings.TrimSpace(*in.Name) == "":
			verr.Add("name", "This field is required.")
		case utf8.RuneCountInString(strings.TrimSpace(*in.Name)) > recipeNameMaxLen:
			verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", recipeNameMaxLen))
		}
	}
	if !partial || in.Text != nil {
		if in.Text == nil || strings.TrimSpace(*in.Text) == "" {
			verr.Add("text", "This field is required.")
		}
	}
	if !partial || in.CookingTime != nil {
		switch {
		case in.CookingTime == nil:
			verr.Add("cooking_time", "This field is required.")
		case *in.CookingTime < 1:
			verr.Add("cooking_time", "Ensure this value is greater than or equal to 1.")
		}
	}

	if err := s.validateIngredients(dbc, in.Ingredients, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *recipeService) validateIngredients(dbc dbctx.Context, items []RecipeIngredientInput, verr *pkgerrors.ValidationError) error {
	if items == nil {
		verr.Add("ingredients", "This field is required.")
		return nil
	}
	if len(items) == 0 {
		verr.Add("ingredients", "At least one ingredient is required.")
		return nil
	}

	seen := make(map[string]bool)
	for i := range items {
		if ierr := validation.Struct(&items[i]); ierr != nil {
			for _, msgs := range ierr.Fields {
				for _, m := range msgs {
					if !seen[m] {
						seen[m] = true
						verr.Add("ingredients", m)
					}
				}
			}
		}
	}

	ids := make([]uint, 0, len(items))
	unique := make(map[uint]bool, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
		unique[it.ID] = true
	}
	if len(unique) != len(ids) {
		verr.Add("ingredients", "Ingredients must not repeat.")
		return nil
	}

	found, err := s.ingredients.GetByIDs(dbc, ids)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	for _, ing := range found {
		delete(unique, ing.ID)
	}
	delete(unique, 0)
	if len(unique) > 0 {
		missing := make([]uint, 0, len(unique))
		for id := range unique {
			missing = append(missing, id)
		}
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		verr.Add("ingredients", fmt.Sprintf("Ingredients with ids %v not found.", missing))
	}
	return nil
}

func associationRows(recipeID uint, items []RecipeIngredientInput) []*types.RecipeIngredient {
	rows := make([]*types.RecipeIngredient, 0, len(items))
	for _, it := range items {
		rows = append(rows, &types.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: it.ID,
			Amount:       it.Amount,
		})
	}
	return rows
}
