package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"staff-directory/internal/domain"
	"staff-directory/internal/email"
	"staff-directory/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive")
	ErrNeedsPasswordSetup = errors.New("password setup required")
	ErrAlreadyHasPassword = errors.New("user already has a password")
	ErrCodeNotGenerated   = errors.New("verification code not generated")
	ErrCodeInvalid        = errors.New("verification code invalid")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
)

// UserService gobierna el ciclo de vida de las cuentas: alta por invitación,
// establecimiento y rotación de contraseña, activación y bajas.
type UserService struct {
	logger        *zap.Logger
	users         repository.UserRepository
	emailSender   email.Sender
	hasher        PasswordHasher
	inviteLimiter InviteRateLimiter
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender, inviteLimiter InviteRateLimiter) *UserService {
	if inviteLimiter == nil {
		inviteLimiter = NewInviteRateLimiter(secureCodeTTL, 3)
	}
	return &UserService{
		logger:        logger,
		users:         users,
		emailSender:   emailSender,
		inviteLimiter: inviteLimiter,
	}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Username string
	Password string
	Role     domain.Role
}

// CreateUser da de alta una cuenta. Con contraseña queda activa de entrada;
// sin contraseña queda invitada: se persiste el hash de un código de
// invitación y el texto plano viaja por correo.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (domain.User, error) {
	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	username := strings.TrimSpace(input.Username)
	if !input.Role.IsValid() {
		return domain.User{}, ErrInvalidRole
	}

	// Pre-chequeo de unicidad. Es solo advisory: el índice único de la base
	// decide, y un conflicto tardío se traduce al mismo error.
	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return domain.User{}, ErrUsernameTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        emailAddr,
		Username:     username,
		Role:         input.Role,
		IsActive:     true,
		IsFirstLogin: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var plainCode string
	if password := strings.TrimSpace(input.Password); password != "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return domain.User{}, err
		}
		user.PasswordHash = hash
		user.IsFirstLogin = false
	} else {
		code, expiresAt, err := NewTimeLimitedCode(secureCodeLength, secureCodeTTL)
		if err != nil {
			return domain.User{}, err
		}
		codeHash, err := s.hasher.Hash(code)
		if err != nil {
			return domain.User{}, err
		}
		plainCode = code
		user.SecureCodeHash = codeHash
		user.SecureCodeExpiresAt = &expiresAt
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, mapDuplicateErr(err)
	}

	if plainCode != "" {
		if err := s.sendInvite(ctx, user, plainCode); err != nil {
			return domain.User{}, err
		}
	}
	return user, nil
}

// ResendInvite genera un código nuevo para una cuenta que sigue pendiente
// de contraseña. Limitado por identificador para frenar reenvíos en ráfaga.
func (s *UserService) ResendInvite(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ErrUserNotFound
	}
	if s.inviteLimiter != nil && !s.inviteLimiter.Allow(strings.ToLower(identifier)) {
		return ErrRateLimited
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.IsActive {
		return ErrUserInactive
	}
	if user.PasswordHash != "" {
		return ErrAlreadyHasPassword
	}

	code, expiresAt, err := NewTimeLimitedCode(secureCodeLength, secureCodeTTL)
	if err != nil {
		return err
	}
	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return err
	}
	if err := s.users.SetSecureCode(ctx, user.ID, codeHash, expiresAt); err != nil {
		if errors.Is(err, repository.ErrPasswordAlreadySet) {
			return ErrAlreadyHasPassword
		}
		return err
	}

	user.SecureCodeExpiresAt = &expiresAt
	return s.sendInvite(ctx, user, code)
}

// ChangePassword rota la contraseña de una cuenta. Cuando ya existe un hash
// la contraseña actual debe verificar; si la cuenta nunca estableció una,
// el chequeo se omite y la operación sirve para destrabar un bootstrap.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if user.PasswordHash != "" {
		if !s.hasher.Verify(currentPassword, user.PasswordHash) {
			return ErrInvalidCredentials
		}
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// SetActive prende o apaga la cuenta. Idempotente; nunca toca contraseña
// ni código de invitación.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) (domain.User, error) {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

type UpdateUserInput struct {
	Name     *string
	Email    *string
	Username *string
	Role     *domain.Role
}

// UpdateUser aplica un patch tipado de los campos administrables. Los campos
// de contraseña y código no pasan por acá: requieren disciplina de máquina
// de estados, no semántica de merge.
func (s *UserService) UpdateUser(ctx context.Context, userID string, input UpdateUserInput) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	update := repository.UserUpdate{Name: input.Name, Role: input.Role}
	if input.Role != nil && !input.Role.IsValid() {
		return domain.User{}, ErrInvalidRole
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		update.Name = &trimmed
	}
	if input.Email != nil {
		emailAddr := normalizeEmail(*input.Email)
		if emailAddr == "" {
			return domain.User{}, ErrInvalidEmail
		}
		if emailAddr != user.Email {
			if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
				return domain.User{}, ErrEmailTaken
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return domain.User{}, err
			}
		}
		update.Email = &emailAddr
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != user.Username {
			if _, err := s.users.GetByUsername(ctx, username); err == nil {
				return domain.User{}, ErrUsernameTaken
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return domain.User{}, err
			}
		}
		update.Username = &username
	}

	if err := s.users.UpdateProfile(ctx, userID, update); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, mapDuplicateErr(err)
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) RemoveUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *UserService) findByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(identifier))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return s.users.GetByUsername(ctx, strings.TrimSpace(identifier))
}

func (s *UserService) sendInvite(ctx context.Context, user domain.User, code string) error {
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	expiresAt := time.Now().UTC().Add(secureCodeTTL)
	if user.SecureCodeExpiresAt != nil {
		expiresAt = *user.SecureCodeExpiresAt
	}
	if err := s.emailSender.SendInviteCode(ctx, user.Email, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send invite code failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

func mapDuplicateErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
