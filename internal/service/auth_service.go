package service

import (
	"errors"
	"fmt"
	"time"

	"coachly/config"
	"coachly/internal/auth"
	"coachly/internal/domain"
	"coachly/internal/models"
	"coachly/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")
	ErrInvalidCreds   = errors.New("invalid email or password")
	ErrInvalidRole    = errors.New("role must be student or coach")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, roleRepo *repository.RoleRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, roleRepo: roleRepo}
}

// Register creates a user plus their role row. Admin cannot be
// self-assigned; it is granted only through the role-management endpoint.
func (s *AuthService) Register(email, username, password, role string) (*models.User, string, string, error) {
	if role != domain.RoleStudent && role != domain.RoleCoach {
		return nil, "", "", ErrInvalidRole
	}
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	_, err = s.userRepo.GetByUsername(username)
	if err == nil {
		return nil, "", "", ErrUsernameExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	if _, err := s.roleRepo.Upsert(u.ID, role, nil); err != nil {
		return nil, "", "", err
	}
	access, refresh, err := s.Tokens(u)
	return u, access, refresh, err
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, refresh, err := s.Tokens(u)
	return u, access, refresh, err
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, "", "", auth.ErrInvalidToken
	}
	access, refresh, err := s.Tokens(u)
	return u, access, refresh, err
}

// FindOrCreateGoogleUser links or creates an account for a Google identity.
// New accounts start as students.
func (s *AuthService) FindOrCreateGoogleUser(googleID, email, name, avatarURL string) (*models.User, error) {
	if u, err := s.userRepo.GetByGoogleID(googleID); err == nil {
		return u, nil
	}
	if u, err := s.userRepo.GetByEmail(email); err == nil {
		u.GoogleID = &googleID
		if u.AvatarURL == "" {
			u.AvatarURL = avatarURL
		}
		if err := s.userRepo.Update(u); err != nil {
			return nil, err
		}
		return u, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	username := name
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		username = fmt.Sprintf("%s-%d", name, time.Now().Unix())
	}
	u := &models.User{
		Email:     email,
		Username:  username,
		GoogleID:  &googleID,
		AvatarURL: avatarURL,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, err
	}
	if _, err := s.roleRepo.Upsert(u.ID, domain.RoleStudent, nil); err != nil {
		return nil, err
	}
	return u, nil
}

// Tokens issues a fresh access/refresh pair for a user.
func (s *AuthService) Tokens(u *models.User) (string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email)
	if err != nil {
		return "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
