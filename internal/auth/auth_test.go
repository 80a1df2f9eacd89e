package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := NewTokenManager("s3cret", time.Hour)

	token, err := m.Issue(42)
	require.NoError(t, err)

	uid, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("s3cret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue(7)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_WrongSecretOrGarbage(t *testing.T) {
	token, err := NewTokenManager("one", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenManager("one", time.Hour).Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewTokenManager("s3cret", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_MissingSecret(t *testing.T) {
	m := NewTokenManager("", time.Hour)
	_, err := m.Issue(1)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = m.Verify("x")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, "abcdef", hash)
	assert.True(t, CheckPasswordHash("abcdef", hash))
	assert.False(t, CheckPasswordHash("abcdeg", hash))
}

func TestInstitutionalEmail(t *testing.T) {
	cases := map[string]bool{
		"user@pc.sc.gov.br":         true,
		"USER@PC.SC.GOV.BR":         true,
		" user@pc.sc.gov.br ":       true,
		"user@dic.pc.sc.gov.br":     true,
		"user@gmail.com":            false,
		"user@fakepc.sc.gov.br":     false,
		"user@pc.sc.gov.br.evil.io": false,
		"pc.sc.gov.br":              false,
		"@pc.sc.gov.br":             false,
		"user@":                     false,
	}
	for email, want := range cases {
		assert.Equal(t, want, InstitutionalEmail(email, "pc.sc.gov.br"), email)
	}
}

func TestNameFromEmail(t *testing.T) {
	assert.Equal(t, "Joao Silva", NameFromEmail("joao.silva@pc.sc.gov.br"))
	assert.Equal(t, "Érica", NameFromEmail("érica@pc.sc.gov.br"))
}

func TestAuthorize(t *testing.T) {
	owner := &Actor{ID: 1}
	other := &Actor{ID: 2}
	mod := &Actor{ID: 3, IsModerator: true}
	admin := &Actor{ID: 4, IsAdmin: true}

	tests := []struct {
		name  string
		actor *Actor
		level Level
		want  bool
	}{
		{"owner on own resource", owner, LevelOwner, true},
		{"stranger on foreign resource", other, LevelOwner, false},
		{"moderator bypasses ownership", mod, LevelOwner, true},
		{"admin bypasses ownership", admin, LevelOwner, true},
		{"anonymous", nil, LevelOwner, false},
		{"owner is not a moderator", owner, LevelModerator, false},
		{"moderator gate", mod, LevelModerator, true},
		{"admin passes moderator gate", admin, LevelModerator, true},
		{"moderator is not admin", mod, LevelAdmin, false},
		{"admin gate", admin, LevelAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(1, tt.actor, tt.level))
		})
	}

	assert.False(t, Authorize(0, &Actor{ID: 0}, LevelOwner), "zero owner never matches")
}

func TestApprovalAfterEdit(t *testing.T) {
	owner := &Actor{ID: 1}
	mod := &Actor{ID: 2, IsModerator: true}

	assert.False(t, ApprovalAfterEdit(true, owner))
	assert.False(t, ApprovalAfterEdit(false, owner))
	assert.True(t, ApprovalAfterEdit(true, mod))
	assert.False(t, ApprovalAfterEdit(false, mod))
}
