// Package esewa implements the signing and callback-decoding half of the
// eSewa ePay integration: HMAC-SHA256 over a canonical field string,
// base64 transport encoding, and validation of the gateway's return blob.
package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// ProductCode is the merchant product code registered with eSewa.
const ProductCode = "EPAYTEST"

var ErrSecretMissing = errors.New("esewa: secret key not configured")

// Field is one name=value pair of the canonical signing string. The
// ordering of fields is part of the protocol; callers supply the exact
// order the gateway documents for their direction (initiation and
// callback use different orders).
type Field struct {
	Name  string
	Value string
}

// Signer computes and checks eSewa signatures with an immutable shared
// secret loaded once at startup. Safe for concurrent use.
type Signer struct {
	secret []byte
}

// NewSigner fails fast on an empty secret: nothing may be signed or
// "verified" against an empty key.
func NewSigner(secret string) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretMissing
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign joins the fields as comma-separated name=value pairs, in the
// order given, and returns the base64 of the HMAC-SHA256 digest.
func (s *Signer) Sign(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it to candidate in
// constant time. The callback path is attacker-observable, so the
// comparison must not leak a matching prefix length.
func (s *Signer) Verify(fields []Field, candidate string) bool {
	return hmac.Equal([]byte(s.Sign(fields)), []byte(candidate))
}
