package domain

import "time"

// Role clasifica el nivel de acceso de un usuario.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// IsValid indica si el rol es uno de los valores conocidos.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// User representa una cuenta del directorio.
type User struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Username            string     `json:"username"`
	PasswordHash        string     `json:"-"`
	SecureCodeHash      string     `json:"-"`
	SecureCodeExpiresAt *time.Time `json:"-"`
	Role                Role       `json:"role"`
	IsActive            bool       `json:"is_active"`
	IsFirstLogin        bool       `json:"is_first_login"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// RequiresPasswordSetup indica si la cuenta sigue invitada sin contraseña.
func (u User) RequiresPasswordSetup() bool {
	return u.PasswordHash == ""
}

// PublicProfile es la vista de un usuario que viaja en respuestas de auth.
// Nunca incluye hashes.
type PublicProfile struct {
	UserID                string `json:"userId"`
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	Username              string `json:"username"`
	Role                  Role   `json:"role"`
	IsFirstLogin          bool   `json:"isFirstLogin"`
	RequiresPasswordSetup bool   `json:"requiresPasswordSetup"`
}

// Profile construye el perfil público de la cuenta.
func (u User) Profile() PublicProfile {
	return PublicProfile{
		UserID:                u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		Username:              u.Username,
		Role:                  u.Role,
		IsFirstLogin:          u.IsFirstLogin,
		RequiresPasswordSetup: u.RequiresPasswordSetup(),
	}
}
