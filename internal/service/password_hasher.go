package service

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// PasswordHasher produce y verifica digests bcrypt. Se usa tanto para
// contraseñas de login como para códigos de invitación.
type PasswordHasher struct{}

// Hash genera un digest salteado del secreto.
func (PasswordHasher) Hash(secret string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// Verify compara secreto contra digest en tiempo constante. Cualquier
// mismatch o digest malformado devuelve false, nunca panic.
func (PasswordHasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
