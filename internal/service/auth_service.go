package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"staff-directory/internal/domain"
	"staff-directory/internal/repository"
)

// AuthService compone repositorio, hasher y tokens para implementar login,
// refresh y el flujo de primer acceso.
type AuthService struct {
	logger *zap.Logger
	users  repository.UserRepository
	tokens *TokenService
	hasher PasswordHasher
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

// Login valida credenciales y emite un token de sesión. Usuario inexistente
// y contraseña incorrecta colapsan en el mismo error para no permitir
// enumeración de cuentas.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, domain.PublicProfile, error) {
	identifier = strings.TrimSpace(identifier)
	password = strings.TrimSpace(password)
	if identifier == "" || password == "" {
		return "", domain.PublicProfile{}, ErrInvalidCredentials
	}

	user, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.PublicProfile{}, ErrInvalidCredentials
		}
		return "", domain.PublicProfile{}, err
	}
	if !user.IsActive {
		return "", domain.PublicProfile{}, ErrUserInactive
	}
	if user.PasswordHash == "" {
		return "", domain.PublicProfile{}, ErrNeedsPasswordSetup
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", domain.PublicProfile{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", domain.PublicProfile{}, err
	}
	return token, user.Profile(), nil
}

// Refresh recarga al usuario y emite un token fresco sin pedir contraseña.
// Cuenta inexistente e inactiva colapsan en el mismo error.
func (s *AuthService) Refresh(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserInactive
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrUserInactive
	}
	return s.tokens.Issue(user)
}

// CheckFirstLogin indica si la cuenta todavía debe establecer contraseña.
// Solo lectura, sin efectos.
func (s *AuthService) CheckFirstLogin(ctx context.Context, identifier string) (bool, error) {
	user, err := s.resolveIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	if !user.IsActive {
		return false, ErrUserInactive
	}
	return user.RequiresPasswordSetup(), nil
}

// SetFirstPassword consume el código de invitación, establece la contraseña
// inicial y deja la sesión iniciada. Único camino de Invited a Active.
func (s *AuthService) SetFirstPassword(ctx context.Context, identifier, password, code string) (string, domain.PublicProfile, error) {
	user, err := s.resolveIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.PublicProfile{}, ErrUserNotFound
		}
		return "", domain.PublicProfile{}, err
	}
	if !user.IsActive {
		return "", domain.PublicProfile{}, ErrUserInactive
	}
	if user.PasswordHash != "" {
		return "", domain.PublicProfile{}, ErrAlreadyHasPassword
	}
	if user.SecureCodeHash == "" {
		return "", domain.PublicProfile{}, ErrCodeNotGenerated
	}
	if !isValidSecureCode(strings.TrimSpace(code)) {
		return "", domain.PublicProfile{}, ErrCodeInvalid
	}
	if user.SecureCodeExpiresAt != nil && time.Now().UTC().After(*user.SecureCodeExpiresAt) {
		return "", domain.PublicProfile{}, ErrCodeExpired
	}
	if !s.hasher.Verify(strings.TrimSpace(code), user.SecureCodeHash) {
		return "", domain.PublicProfile{}, ErrCodeInvalid
	}

	hash, err := s.hasher.Hash(strings.TrimSpace(password))
	if err != nil {
		return "", domain.PublicProfile{}, err
	}
	// Compare-and-set en el store: de dos bootstraps concurrentes con el
	// mismo código válido, exactamente uno gana.
	if err := s.users.EstablishPassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrPasswordAlreadySet) {
			return "", domain.PublicProfile{}, ErrAlreadyHasPassword
		}
		return "", domain.PublicProfile{}, err
	}

	user.PasswordHash = hash
	user.SecureCodeHash = ""
	user.SecureCodeExpiresAt = nil
	user.IsFirstLogin = false

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", domain.PublicProfile{}, err
	}
	if s.logger != nil {
		s.logger.Info("first password established", zap.String("user_id", user.ID))
	}
	return token, user.Profile(), nil
}

func (s *AuthService) resolveIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(identifier))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return s.users.GetByUsername(ctx, identifier)
}
