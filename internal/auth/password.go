package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail trims and lower-cases an address; emails are compared case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InstitutionalEmail reports whether email belongs to domain or one of its sub-domains.
func InstitutionalEmail(email, domain string) bool {
	email = NormalizeEmail(email)
	domain = strings.ToLower(strings.TrimPrefix(domain, "@"))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || domain == "" {
		return false
	}
	host := email[at+1:]
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// NameFromEmail derives a display name from the local part ("joao.silva" -> "Joao Silva").
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		r := []rune(p)
		parts[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	if len(parts) == 0 {
		return local
	}
	return strings.Join(parts, " ")
}
