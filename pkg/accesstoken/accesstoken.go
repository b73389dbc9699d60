// Package accesstoken derives unforgeable, booking-scoped credentials for
// unauthenticated customer self-service (reschedule and cancel).
//
// A token is deterministically derived from the booking id, the customer
// email, and a server-held secret. There is no token table: the same token can
// be regenerated identically when a confirmation email is resent, and
// verification recomputes the expected value instead of looking anything up.
package accesstoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue derives the self-service token for one booking. The email is
// normalized so the token survives case differences in how the customer typed
// their address.
func (i *Issuer) Issue(bookingID, customerEmail string) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(bookingID))
	mac.Write([]byte(":"))
	mac.Write([]byte(normalizeEmail(customerEmail)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether token authorizes self-service on exactly this
// booking. Comparison is constant time.
func (i *Issuer) Verify(token, bookingID, customerEmail string) bool {
	expected := i.Issue(bookingID, customerEmail)
	return hmac.Equal([]byte(expected), []byte(token))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
