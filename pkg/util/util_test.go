package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1", "secret")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	userID, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want user-1", userID)
	}

	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Error("token verified under the wrong secret")
	}
	if _, err := ParseJWT("garbage", "secret"); err == nil {
		t.Error("garbage token parsed")
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := ExtractToken(req); got != "" {
		t.Errorf("bare request yielded %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	if got := ExtractToken(req); got != "abc123" {
		t.Errorf("header token = %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie-token"})
	if got := ExtractToken(req); got != "cookie-token" {
		t.Errorf("cookie token = %q", got)
	}

	// The header wins when both are present.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie-token"})
	if got := ExtractToken(req); got != "header-token" {
		t.Errorf("token = %q, want the header token", got)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("password not hashed")
	}
	if !CheckPassword("hunter22", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
