package shared

import (
	"strings"
	"testing"
)

func TestSignatureKnownVector(t *testing.T) {
	// Example from GitHub's webhook validation docs.
	got := Signature("It's a Secret to Everybody", []byte("Hello, World!"))
	want := "sha256=757107ea0eb2509fc211221cce984b8a37570b6d7586c22c46f4379c8b043e17"
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestValidSHA256SignatureAcceptsCorrectSignature(t *testing.T) {
	cases := []struct {
		secret string
		body   string
	}{
		{"s3cr3t", `{"zen":"Keep it logically awesome."}`},
		{"another secret", ""},
		{"ünïcødé", `{"ref":"refs/heads/main"}`},
	}
	for _, tc := range cases {
		body := []byte(tc.body)
		if !ValidSHA256Signature(tc.secret, body, Signature(tc.secret, body)) {
			t.Fatalf("expected signature to validate for secret %q body %q", tc.secret, tc.body)
		}
	}
}

func TestValidSHA256SignatureRejectsBodyBitFlips(t *testing.T) {
	secret := "s3cr3t"
	body := []byte(`{"ref":"refs/heads/main","after":"abc123"}`)
	sig := Signature(secret, body)
	for i := range body {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= 1 << bit
			if ValidSHA256Signature(secret, mutated, sig) {
				t.Fatalf("mutated body accepted at byte %d bit %d", i, bit)
			}
		}
	}
}

func TestValidSHA256SignatureRejectsSignatureBitFlips(t *testing.T) {
	secret := "s3cr3t"
	body := []byte(`{"zen":"Design for failure."}`)
	sig := []byte(Signature(secret, body))
	for i := range sig {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), sig...)
			mutated[i] ^= 1 << bit
			if ValidSHA256Signature(secret, body, string(mutated)) {
				t.Fatalf("mutated signature accepted at byte %d bit %d", i, bit)
			}
		}
	}
}

func TestValidSHA256SignatureRejectsMalformedHeaders(t *testing.T) {
	body := []byte(`{}`)
	valid := Signature("s3cr3t", body)
	for _, header := range []string{
		"",
		strings.TrimPrefix(valid, SignaturePrefix),
		"sha1=" + strings.TrimPrefix(valid, SignaturePrefix),
		strings.ToUpper(valid),
		valid + "00",
		Signature("other", body),
	} {
		if ValidSHA256Signature("s3cr3t", body, header) {
			t.Fatalf("expected header %q to be rejected", header)
		}
	}
}
