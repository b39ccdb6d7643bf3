package auth

import "testing"

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Sign(42)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	uid, err := j.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d, want 42", uid)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWT("secret-a").Sign(1)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := NewJWT("secret-b").Verify(token); err == nil {
		t.Fatal("Verify with wrong secret succeeded")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	if _, err := NewJWT("s").Verify("not.a.token"); err == nil {
		t.Fatal("Verify of garbage succeeded")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals plaintext")
	}
	if !ComparePassword(hash, "hunter22") {
		t.Fatal("ComparePassword rejected correct password")
	}
	if ComparePassword(hash, "hunter23") {
		t.Fatal("ComparePassword accepted wrong password")
	}
}
