package auth

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	Generate(userID int64) (string, error)
	Validate(token string) (int64, error)
}

// PasswordHasher produces and checks one-way password digests.
// Verify reports false for any mismatch, including malformed digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}
