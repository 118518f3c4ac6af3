package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	repo "github.com/oksasatya/ppob-membership/internal/domain/repository"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
	"github.com/oksasatya/ppob-membership/pkg/mailer"
	mailtpl "github.com/oksasatya/ppob-membership/pkg/mailer/templates"
	"github.com/oksasatya/ppob-membership/pkg/validation"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 50
)

// imageExt lists the accepted profile image content types.
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ObjectUploader stores a blob and returns the URL it is served from.
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type MembershipService struct {
	Users     repo.UserRepository
	JWT       *helpers.JWTManager
	Redis     *redis.Client
	Uploader  ObjectUploader
	Publisher Publisher
	Branding  mailtpl.Branding
	Logger    *logrus.Logger
}

func NewMembershipService(users repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, uploader ObjectUploader, logger *logrus.Logger) *MembershipService {
	return &MembershipService{Users: users, JWT: jwt, Redis: rdb, Uploader: uploader, Logger: logger}
}

type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func (s *MembershipService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	if !validation.IsEmail(email) {
		return nil, ErrInvalidEmail
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, ErrInvalidName
	}
	if n := utf8.RuneCountInString(in.Password); n < minPasswordLen || n > maxPasswordLen {
		return nil, ErrInvalidPassword
	}

	salt, err := helpers.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := helpers.HashPassword(in.Password, salt)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Email:        email,
		FirstName:    first,
		LastName:     last,
		Salt:         salt,
		PasswordHash: hash,
		Status:       entity.StatusActive,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		loggerOr(s.Logger).WithError(err).WithField("email", email).Error("create user failed")
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.Publisher != nil {
		job := mailer.EmailJob{
			To:       u.Email,
			Template: mailtpl.Welcome,
			Data:     mailtpl.NewWelcomeData(s.Branding, fullName(u), u.Email, mailtpl.WithTime(u.CreatedAt)),
		}
		if err := s.Publisher.PublishJSON(ctx, job); err != nil {
			loggerOr(s.Logger).WithError(err).WithField("user_id", u.ID).Warn("publish welcome failed")
		}
	}
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing a token.
func (s *MembershipService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password, u.Salt) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueToken signs an access token and records the session in Redis.
func (s *MembershipService) IssueToken(ctx context.Context, u *entity.User) (AccessToken, error) {
	sid := uuid.NewString()
	token, exp, err := s.JWT.GenerateAccessToken(u.ID, u.Email, sid)
	if err != nil {
		loggerOr(s.Logger).WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return AccessToken{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, s.JWT.TTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			loggerOr(s.Logger).WithError(rErr).WithField("key", key).Error("record session failed")
			return AccessToken{}, fmt.Errorf("record session: %w", rErr)
		}
	}
	return AccessToken{Token: token, ExpiresAt: exp}, nil
}

func (s *MembershipService) Login(ctx context.Context, email, password string) (AccessToken, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return AccessToken{}, err
	}
	return s.IssueToken(ctx, u)
}

// Logout drops the user's session so outstanding tokens stop working.
func (s *MembershipService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, helpers.SessionKey(userID))
}

func (s *MembershipService) GetProfile(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
}

// UpdateProfile changes only the non-empty names and keeps the session TTL.
func (s *MembershipService) UpdateProfile(ctx context.Context, email string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.FirstName); v != "" {
		u.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		u.LastName = v
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.touchSession(ctx, u.ID, map[string]any{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	})
	return u, nil
}

// UploadProfileImage stores a jpeg or png under profile-images/<user id>/ and
// saves its URL on the profile.
func (s *MembershipService) UploadProfileImage(ctx context.Context, email string, r io.Reader, contentType string) (*entity.User, error) {
	ext, ok := imageExt[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, ErrInvalidImage
	}
	u, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	if s.Uploader == nil {
		return nil, errors.New("object storage not configured")
	}
	objectPath := path.Join("profile-images", u.ID, uuid.NewString()+ext)
	url, err := s.Uploader.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		loggerOr(s.Logger).WithError(err).WithField("user_id", u.ID).Error("upload profile image failed")
		return nil, fmt.Errorf("upload profile image: %w", err)
	}
	u.ProfileImage = url
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.touchSession(ctx, u.ID, map[string]any{"profile_image": url})
	return u, nil
}

func (s *MembershipService) save(ctx context.Context, u *entity.User) error {
	err := s.Users.Update(ctx, u)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		loggerOr(s.Logger).WithError(err).WithField("user_id", u.ID).Error("update user failed")
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *MembershipService) touchSession(ctx context.Context, userID string, fields map[string]any) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(userID)
	if n, err := s.Redis.Exists(ctx, key).Result(); err != nil || n == 0 {
		return
	}
	fields["updated_at"] = nowRFC3339()
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, fields)
	if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, pErr := pipe.Exec(ctx); pErr != nil {
		loggerOr(s.Logger).WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
	}
}
