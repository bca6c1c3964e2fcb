package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret")

	signed, err := m.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, err := NewManager("secret-a").Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewManager("secret-b").Verify(signed); err != ErrInvalid {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	m := NewManager("test-secret")
	for _, bad := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Verify(bad); err != ErrInvalid {
			t.Errorf("Verify(%q) err = %v, want ErrInvalid", bad, err)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret")

	past := time.Now().Add(-2 * Validity)
	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(Validity)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	if _, err := m.Verify(signed); err != ErrInvalid {
		t.Errorf("err = %v, want ErrInvalid for expired token", err)
	}
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	claims := Claims{UserID: 7}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := NewManager("test-secret").Verify(unsigned); err != ErrInvalid {
		t.Errorf("err = %v, want ErrInvalid for alg=none", err)
	}
}
