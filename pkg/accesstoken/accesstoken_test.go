package accesstoken

import "testing"

func TestIssue_Deterministic(t *testing.T) {
	issuer := NewIssuer("server-secret")

	first := issuer.Issue("65a000000000000000000001", "ann@example.com")
	second := issuer.Issue("65a000000000000000000001", "ann@example.com")

	if first != second {
		t.Error("token must be reissuable without storage")
	}
}

func TestIssue_EmailNormalization(t *testing.T) {
	issuer := NewIssuer("server-secret")

	lower := issuer.Issue("65a000000000000000000001", "ann@example.com")
	mixed := issuer.Issue("65a000000000000000000001", "  Ann@Example.COM ")

	if lower != mixed {
		t.Error("token must not depend on email casing or whitespace")
	}
}

func TestVerify_ScopedToExactBooking(t *testing.T) {
	issuer := NewIssuer("server-secret")

	tokenA := issuer.Issue("65a000000000000000000001", "ann@example.com")

	if !issuer.Verify(tokenA, "65a000000000000000000001", "ann@example.com") {
		t.Error("token must verify for the booking it was issued for")
	}
	if issuer.Verify(tokenA, "65a000000000000000000002", "ann@example.com") {
		t.Error("token for booking A must fail against booking B")
	}
	if issuer.Verify(tokenA, "65a000000000000000000001", "mallory@example.com") {
		t.Error("token must fail for a different customer email")
	}
}

func TestVerify_DifferentSecrets(t *testing.T) {
	token := NewIssuer("secret-one").Issue("65a000000000000000000001", "ann@example.com")

	if NewIssuer("secret-two").Verify(token, "65a000000000000000000001", "ann@example.com") {
		t.Error("token minted under another secret must not verify")
	}
}
