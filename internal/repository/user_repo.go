package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"staff-directory/internal/domain"
)

var (
	// ErrDuplicateEmail indica violación del índice único de email.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateUsername indica violación del índice único de username.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrPasswordAlreadySet indica que un update condicionado a
	// password_hash IS NULL no afectó filas.
	ErrPasswordAlreadySet = errors.New("password already set")
)

// UserUpdate lista los campos que un caller administrativo puede cambiar.
// Los campos de contraseña y código quedan fuera a propósito.
type UserUpdate struct {
	Name     *string
	Email    *string
	Username *string
	Role     *domain.Role
}

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id string, update UserUpdate) error
	SetActive(ctx context.Context, id string, active bool) error
	SetSecureCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	EstablishPassword(ctx context.Context, id, passwordHash string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, name, email, username, password_hash, secure_code_hash,
	secure_code_expires_at, role, is_active, is_first_login, created_at, updated_at
`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (
			id, name, email, username, password_hash, secure_code_hash,
			secure_code_expires_at, role, is_active, is_first_login, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.SecureCodeHash,
		user.SecureCodeExpiresAt,
		user.Role,
		user.IsActive,
		user.IsFirstLogin,
		user.CreatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *PgUserRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, id string, update UserUpdate) error {
	const query = `
		UPDATE users
		SET name       = COALESCE($2, name),
		    email      = COALESCE($3, email),
		    username   = COALESCE($4, username),
		    role       = COALESCE($5, role),
		    updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, update.Name, update.Email, update.Username, update.Role)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `
		UPDATE users
		SET is_active = $2, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetSecureCode persiste un nuevo hash de código de invitación. Solo aplica
// mientras la cuenta no tiene contraseña, así el código nunca convive con un
// password_hash.
func (r *PgUserRepository) SetSecureCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET secure_code_hash = $2, secure_code_expires_at = $3, updated_at = now()
		WHERE id = $1 AND password_hash IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, id, codeHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPasswordAlreadySet
	}
	return nil
}

// EstablishPassword fija la contraseña inicial con compare-and-set sobre
// "password_hash todavía ausente". De dos bootstraps concurrentes solo uno
// afecta filas; el perdedor recibe ErrPasswordAlreadySet.
func (r *PgUserRepository) EstablishPassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2,
		    secure_code_hash = NULL,
		    secure_code_expires_at = NULL,
		    is_first_login = false,
		    updated_at = now()
		WHERE id = $1 AND password_hash IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPasswordAlreadySet
	}
	return nil
}

// UpdatePassword rota la contraseña sin condición de estado previo. También
// limpia cualquier código pendiente para mantener la exclusión entre
// password_hash y secure_code_hash.
func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2,
		    secure_code_hash = NULL,
		    secure_code_expires_at = NULL,
		    is_first_login = false,
		    updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) scanUser(row pgx.Row) (domain.User, error) {
	var (
		u            domain.User
		passwordHash *string
		codeHash     *string
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Username,
		&passwordHash,
		&codeHash,
		&u.SecureCodeExpiresAt,
		&u.Role,
		&u.IsActive,
		&u.IsFirstLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	if codeHash != nil {
		u.SecureCodeHash = *codeHash
	}
	return u, nil
}

// mapUniqueViolation traduce violaciones de índice único (23505) a errores
// del dominio; el índice en la base es el árbitro final de unicidad.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "username") {
			return ErrDuplicateUsername
		}
		return ErrDuplicateEmail
	}
	return err
}
