package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// tokenBytes gives 256 bits of entropy; collisions are not a practical
// concern at this size so no uniqueness check is done.
const tokenBytes = 32

// GenerateToken returns a cryptographically random, URL-safe approval token.
// The raw token is only ever embedded in the outbound approval links; storage
// holds its hash.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate approval token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ComputeTokenHash returns the hex digest of a one-way hash over the version
// tag, request id, server pepper and token. Scoping the hash to the request
// id means a leaked digest from one request is useless against another.
func ComputeTokenHash(requestID, token, pepper string) string {
	h := sha256.New()
	h.Write([]byte("v1|"))
	h.Write([]byte(requestID))
	h.Write([]byte("|"))
	h.Write([]byte(pepper))
	h.Write([]byte("|"))
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify compares two hex digests in constant time. Undecodable input or a
// length mismatch returns false rather than an error.
func Verify(expectedHex, candidateHex string) bool {
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false
	}
	candidate, err := hex.DecodeString(candidateHex)
	if err != nil {
		return false
	}
	if len(expected) != len(candidate) {
		return false
	}
	return subtle.ConstantTimeCompare(expected, candidate) == 1
}
