package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"paygrid-system/internal/database/models"
	"paygrid-system/internal/utils"
)

var (
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service manages login principals for the admin gate. It is not a
// session system: it only mints JWTs carrying the user's role.
type Service struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
}

func NewService(db *gorm.DB, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a staff login. Admin accounts are never created via
// this path; they are provisioned at startup through EnsureAdmin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, time.Time, error) {
	var existingUser models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", in.Username, in.Email).
		First(&existingUser).Error
	if err == nil {
		return nil, "", time.Time{}, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", time.Time{}, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	newUser := models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(pwHash),
		Role:     "staff",
	}

	if err := s.db.WithContext(ctx).Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", time.Time{}, ErrUserExists
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := utils.GenerateToken(s.secret, newUser.ID, newUser.Username, newUser.Role, s.tokenTTL)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	return &newUser, token, exp, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, time.Time, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, exp, err := utils.GenerateToken(s.secret, user.ID, user.Username, user.Role, s.tokenTTL)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	// Best-effort timestamp; a failure here must not reject the login.
	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		log.Printf("Failed to record last login for %s: %v", user.Username, err)
	}

	return &user, token, exp, nil
}

// EnsureAdmin provisions the configured admin account if it does not
// exist yet. Called once at startup; a no-op when username is empty.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username: username,
		Email:    username + "@local",
		Password: string(pwHash),
		Role:     models.RoleAdmin,
	}
	return s.db.WithContext(ctx).Create(&admin).Error
}
