package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/goccy/go-json"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
)

const avatarSize = 512

var defaultAvatarColors = []color.NRGBA{
	{R: 0xE5, G: 0x73, B: 0x73, A: 0xFF},
	{R: 0xF0, G: 0x62, B: 0x92, A: 0xFF},
	{R: 0xBA, G: 0x68, B: 0xC8, A: 0xFF},
	{R: 0x95, G: 0x75, B: 0xCD, A: 0xFF},
	{R: 0x79, G: 0x86, B: 0xCB, A: 0xFF},
	{R: 0x64, G: 0xB5, B: 0xF6, A: 0xFF},
	{R: 0x4D, G: 0xB6, B: 0xAC, A: 0xFF},
	{R: 0x81, G: 0xC7, B: 0x84, A: 0xFF},
	{R: 0xFF, G: 0xB7, B: 0x4D, A: 0xFF},
	{R: 0xA1, G: 0x88, B: 0x7F, A: 0xFF},
}

type AvatarService interface {
	// SetAvatar stores a base64 image as the user's avatar and returns its URL.
	SetAvatar(dbc dbctx.Context, userID uint, payload string) (string, error)
	DeleteAvatar(dbc dbctx.Context, userID uint) error
	// RenderPlaceholder draws the user's initials on a colored circle.
	RenderPlaceholder(dbc dbctx.Context, userID uint) ([]byte, error)
	AvatarURL(user *types.User) string
}

type avatarService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	store    objectstorage.Store

	bgColors []color.NRGBA
	fontFace font.Face
}

// NewAvatarService loads the placeholder palette and font. AVATAR_COLORS_JSON_PATH
// and AVATAR_FONT override the built-in palette and Go Regular.
func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, store objectstorage.Store) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	bgColors := defaultAvatarColors
	if p := strings.TrimSpace(os.Getenv("AVATAR_COLORS_JSON_PATH")); p != "" {
		serviceLog.Info("Loading avatar colors...", "path", p)
		loaded, err := loadColorsFromFile(p)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) == 0 {
			return nil, fmt.Errorf("avatar colors list is empty")
		}
		bgColors = loaded
	}

	fontBytes := goregular.TTF
	if p := strings.TrimSpace(os.Getenv("AVATAR_FONT")); p != "" {
		serviceLog.Info("Loading avatar font", "font", p)
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = b
	}
	face, err := loadFontFace(fontBytes, avatarSize*0.4)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:      serviceLog,
		userRepo: userRepo,
		store:    store,
		bgColors: bgColors,
		fontFace: face,
	}, nil
}

func (as *avatarService) loadUser(dbc dbctx.Context, userID uint) (*types.User, error) {
	user, err := as.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return user, nil
}

func (as *avatarService) SetAvatar(dbc dbctx.Context, userID uint, payload string) (string, error) {
	img, err := DecodeImagePayload(payload)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) {
			return "", pkgerrors.Field("avatar", "Upload a valid image.")
		}
		return "", err
	}
	user, err := as.loadUser(dbc, userID)
	if err != nil {
		return "", err
	}
	processed, err := processUploadedAvatar(img.Data, avatarSize)
	if err != nil {
		return "", pkgerrors.Field("avatar", "Upload a valid image.")
	}

	oldKey := strings.TrimSpace(user.AvatarKey)
	// Versioned so caches never serve the previous image.
	newKey := fmt.Sprintf("%d/%d.png", user.ID, time.Now().UnixNano())

	if err := as.store.UploadFile(dbc, objectstorage.CategoryAvatar, newKey, bytes.NewReader(processed.Bytes())); err != nil {
		return "", fmt.Errorf("failed to upload user avatar: %w", err)
	}
	if err := as.userRepo.UpdateAvatarKey(dbc, user.ID, newKey); err != nil {
		if derr := as.store.DeleteFile(dbctx.Context{Ctx: dbc.Ctx}, objectstorage.CategoryAvatar, newKey); derr != nil {
			as.log.Warn("failed to delete orphaned avatar (ignored)", "key", newKey, "error", derr)
		}
		return "", fmt.Errorf("update avatar key: %w", err)
	}
	if oldKey != "" && oldKey != newKey {
		if err := as.store.DeleteFile(dbctx.Context{Ctx: dbc.Ctx}, objectstorage.CategoryAvatar, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	user.AvatarKey = newKey
	return as.AvatarURL(user), nil
}

func (as *avatarService) DeleteAvatar(dbc dbctx.Context, userID uint) error {
	user, err := as.loadUser(dbc, userID)
	if err != nil {
		return err
	}
	oldKey := strings.TrimSpace(user.AvatarKey)
	if oldKey == "" {
		return nil
	}
	if err := as.userRepo.UpdateAvatarKey(dbc, user.ID, ""); err != nil {
		return fmt.Errorf("clear avatar key: %w", err)
	}
	if err := as.store.DeleteFile(dbctx.Context{Ctx: dbc.Ctx}, objectstorage.CategoryAvatar, oldKey); err != nil {
		as.log.Warn("failed to delete avatar object (ignored)", "key", oldKey, "error", err)
	}
	return nil
}

func (as *avatarService) AvatarURL(user *types.User) string {
	if user == nil || strings.TrimSpace(user.AvatarKey) == "" {
		return ""
	}
	return as.store.GetPublicURL(objectstorage.CategoryAvatar, user.AvatarKey)
}

func (as *avatarService) RenderPlaceholder(dbc dbctx.Context, userID uint) ([]byte, error) {
	user, err := as.loadUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	buf, err := as.generatePlaceholder(user)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (as *avatarService) generatePlaceholder(user *types.User) (bytes.Buffer, error) {
	const size = avatarSize
	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.pickColor(user.ID))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName, user.Username)
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, float64(size)/2, float64(size)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// pickColor is stable per user so the placeholder never changes between requests.
func (as *avatarService) pickColor(userID uint) color.NRGBA {
	return as.bgColors[int(userID%uint(len(as.bgColors)))]
}

// processUploadedAvatar center-crops to a square and scales to size x size PNG.
func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	if _, _, err := checkImageConfig(raw); err != nil {
		return out, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContextForRGBA(dst)
	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func computeInitials(first, last, username string) string {
	initial := func(s string) string {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
		if r == utf8.RuneError {
			return ""
		}
		return string(unicode.ToUpper(r))
	}
	out := initial(first) + initial(last)
	if out == "" {
		out = initial(username)
	}
	if out == "" {
		return "?"
	}
	return out
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var colors []color.NRGBA
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	return colors, nil
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
