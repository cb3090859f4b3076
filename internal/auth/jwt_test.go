package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 44-character base64 string, as produced by `openssl rand -base64 32`
const testSecret = "wJ6Qk8Qn1v9Qw1Zb2l8Qk9J3p6Qk8Qn1v9Qw1Zb2l8Qk="

func signClaims(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	tests := []struct {
		name    string
		login   string
		role    string
		wantErr error
	}{
		{
			name:  "student token",
			login: "dima",
			role:  RoleUser,
		},
		{
			name:  "mentor token",
			login: "anna",
			role:  RoleMentor,
		},
		{
			name:    "empty login",
			login:   "",
			role:    RoleUser,
			wantErr: ErrEmptyLogin,
		},
		{
			name:    "unknown role",
			login:   "root",
			role:    "admin",
			wantErr: ErrUnknownRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.GenerateAccessToken(tt.login, tt.role)
			if err != tt.wantErr {
				t.Fatalf("GenerateAccessToken() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && token == "" {
				t.Error("GenerateAccessToken() returned empty token")
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	token, err := svc.GenerateAccessToken("anna", RoleMentor)
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	beforeValidate := time.Now()
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "anna" {
		t.Errorf("Subject = %v, want anna", claims.Subject)
	}
	if claims.Role != RoleMentor {
		t.Errorf("Role = %v, want %v", claims.Role, RoleMentor)
	}
	if claims.ExpiresAt.Time.After(beforeValidate.Add(AccessTokenExpiry + time.Second)) {
		t.Errorf("ExpiresAt = %v exceeds access token expiry", claims.ExpiresAt.Time)
	}
}

func TestValidateToken_RejectsIncompleteClaims(t *testing.T) {
	svc := NewJWTService(testSecret)
	now := time.Now()

	tests := []struct {
		name   string
		claims Claims
	}{
		{
			name: "missing subject",
			claims: Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
				Role:             RoleUser,
			},
		},
		{
			name: "missing role",
			claims: Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "dima", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
			},
		},
		{
			name: "unknown role",
			claims: Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "dima", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
				Role:             "admin",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(signClaims(t, testSecret, tt.claims))
			if err != ErrInvalidToken {
				t.Errorf("ValidateToken() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	svc := NewJWTServiceWithRotationAndLeeway(testSecret, "", 0) // No leeway for this test

	now := time.Now()
	tokenString := signClaims(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-expired",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)), // Expired 1 hour ago
		},
		Role: RoleUser,
	})

	_, err := svc.ValidateToken(tokenString)
	if err != ErrExpiredToken {
		t.Errorf("ValidateToken() error = %v, want %v", err, ErrExpiredToken)
	}
}

func TestTamperedToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	validToken, err := svc.GenerateAccessToken("dima", RoleUser)
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	parts := strings.Split(validToken, ".")
	if len(parts) != 3 {
		t.Fatalf("Invalid token format")
	}

	// Corrupt the signature
	tamperedToken := parts[0] + "." + parts[1] + ".tamperedsignature"

	_, err = svc.ValidateToken(tamperedToken)
	if err != ErrInvalidToken {
		t.Errorf("ValidateToken() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestUnexpectedSigningMethod(t *testing.T) {
	svc := NewJWTService(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "dima", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Role:             RoleUser,
	})
	tokenString, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := svc.ValidateToken(tokenString); err != ErrInvalidToken {
		t.Errorf("ValidateToken() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestLeewayValidation(t *testing.T) {
	now := time.Now()
	tokenString := signClaims(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-leeway",
			IssuedAt:  jwt.NewNumericDate(now.Add(-1 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)), // Expired 10 seconds ago
		},
		Role: RoleUser,
	})

	t.Run("with default leeway (30s) - should pass", func(t *testing.T) {
		svc := NewJWTService(testSecret)
		if _, err := svc.ValidateToken(tokenString); err != nil {
			t.Errorf("ValidateToken() error = %v, expected no error (within leeway)", err)
		}
	})

	t.Run("with no leeway - should fail", func(t *testing.T) {
		svc := NewJWTServiceWithRotationAndLeeway(testSecret, "", 0)
		if _, err := svc.ValidateToken(tokenString); err != ErrExpiredToken {
			t.Errorf("ValidateToken() error = %v, want %v", err, ErrExpiredToken)
		}
	})
}

// TestKeyRotation tests the dual-key rotation feature for zero-downtime secret rotation.
func TestKeyRotation(t *testing.T) {
	currentSecret := "current-secret-key-12345678"
	previousSecret := "previous-secret-key-87654321"

	t.Run("token signed with previous secret still validates", func(t *testing.T) {
		oldToken, err := NewJWTService(previousSecret).GenerateAccessToken("user-456", RoleUser)
		if err != nil {
			t.Fatalf("GenerateAccessToken() error = %v", err)
		}

		claims, err := NewJWTServiceWithRotation(currentSecret, previousSecret).ValidateToken(oldToken)
		if err != nil {
			t.Fatalf("ValidateToken() error = %v, expected old token to validate with previousSecret", err)
		}
		if claims.Subject != "user-456" {
			t.Errorf("ValidateToken() Subject = %v, want user-456", claims.Subject)
		}
	})

	t.Run("new tokens always use current secret", func(t *testing.T) {
		svc := NewJWTServiceWithRotation(currentSecret, previousSecret)
		token, err := svc.GenerateAccessToken("user-789", RoleMentor)
		if err != nil {
			t.Fatalf("GenerateAccessToken() error = %v", err)
		}

		if _, err := NewJWTService(currentSecret).ValidateToken(token); err != nil {
			t.Errorf("ValidateToken() error = %v, token should be signed with current secret", err)
		}
		if _, err := NewJWTService(previousSecret).ValidateToken(token); err != ErrInvalidToken {
			t.Errorf("ValidateToken() error = %v, want %v (token should not validate with previous secret only)", err, ErrInvalidToken)
		}
	})

	t.Run("token with wrong secret fails", func(t *testing.T) {
		wrongToken, err := NewJWTService("wrong-secret-key-99999999").GenerateAccessToken("user-wrong", RoleUser)
		if err != nil {
			t.Fatalf("GenerateAccessToken() error = %v", err)
		}

		_, err = NewJWTServiceWithRotation(currentSecret, previousSecret).ValidateToken(wrongToken)
		if err != ErrInvalidToken {
			t.Errorf("ValidateToken() error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("expired token through previous secret reports expiry", func(t *testing.T) {
		now := time.Now()
		tokenString := signClaims(t, previousSecret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-expired",
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)),
			},
			Role: RoleUser,
		})

		_, err := NewJWTServiceWithRotationAndLeeway(currentSecret, previousSecret, 0).ValidateToken(tokenString)
		if err != ErrExpiredToken {
			t.Errorf("ValidateToken() error = %v, want %v", err, ErrExpiredToken)
		}
	})
}
