package services

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testTokens() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "hostelhub",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func TestPasswordHashing(t *testing.T) {
	tokens := testTokens()
	hash, err := tokens.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}
	if !tokens.VerifyPassword("s3cret-pass", hash) {
		t.Fatalf("expected password to verify")
	}
	if tokens.VerifyPassword("wrong", hash) {
		t.Fatalf("wrong password verified")
	}

	legacy, err := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if !tokens.VerifyPassword("old-pass", string(legacy)) {
		t.Fatalf("bcrypt hash should still verify")
	}
}

func TestAccessAndRefreshTokensAreNotInterchangeable(t *testing.T) {
	tokens := testTokens()
	access, exp, err := tokens.CreateAccessToken("user-1", "a@b.c", []string{"STUDENT"})
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Fatalf("expiry should be in the future")
	}
	claims, err := tokens.ParseAccessToken(access)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Email != "a@b.c" || len(claims.Roles) != 1 {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := tokens.ParseRefreshToken(access); err == nil {
		t.Fatalf("access token accepted as refresh token")
	}

	refresh, err := tokens.CreateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := tokens.ParseAccessToken(refresh); err == nil {
		t.Fatalf("refresh token accepted as access token")
	}
}

func TestTokenRejectsOtherIssuerAndSecret(t *testing.T) {
	tokens := testTokens()
	other := testTokens()
	other.Issuer = "someone-else"
	token, _, _ := other.CreateAccessToken("u", "", nil)
	if _, err := tokens.ParseAccessToken(token); err == nil {
		t.Fatalf("token from another issuer accepted")
	}
	other = testTokens()
	other.Secret = []byte("different")
	token, _, _ = other.CreateAccessToken("u", "", nil)
	if _, err := tokens.ParseAccessToken(token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	tokens := testTokens()
	tokens.AccessTTL = -time.Minute
	token, _, _ := tokens.CreateAccessToken("u", "", nil)
	if _, err := tokens.ParseAccessToken(token); err == nil {
		t.Fatalf("expired token accepted")
	}
}
