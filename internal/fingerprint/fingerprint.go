// ABOUTME: Keyed content fingerprinting for tamper detection on stored messages
// ABOUTME: HMAC-SHA256 over an HKDF-derived per-session key; detection, not concealment

package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keyInfo binds derived keys to this scheme so a secret reused elsewhere
// cannot produce colliding digests.
const keyInfo = "brain-dump conversation fingerprint v1"

// Signer computes content fingerprints keyed by a host identity secret.
// A fingerprint is a pure function of (secret, session id, content): at
// export time it is recomputed from the stored content and compared to the
// stored value to detect out-of-band edits to the content column.
type Signer struct {
	secret []byte
}

// New creates a Signer from the host identity secret.
func New(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Fingerprint returns the hex-encoded HMAC-SHA256 of content under a key
// derived from the secret and session id. Hash writes cannot fail, so this
// has no error path.
func (s *Signer) Fingerprint(sessionID, content string) string {
	key := s.sessionKey(sessionID)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the fingerprint for content and compares it to the
// stored digest in constant time.
func (s *Signer) Verify(sessionID, content, digest string) bool {
	return hmac.Equal([]byte(s.Fingerprint(sessionID, content)), []byte(digest))
}

// sessionKey derives the 32-byte per-session key via HKDF-SHA256,
// salted with the session id.
func (s *Signer) sessionKey(sessionID string) []byte {
	r := hkdf.New(sha256.New, s.secret, []byte(sessionID), []byte(keyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only errors once the output limit (255*32 bytes) is exceeded;
		// a single 32-byte read cannot get there.
		panic("fingerprint: hkdf expand failed: " + err.Error())
	}
	return key
}
