package player

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"
)

type HashFactory func() hash.Hash

// TokenHasher turns bearer tokens into the digests stored by directories, so
// tokens are never kept in clear.
type TokenHasher struct {
	createHash HashFactory
}

func NewTokenHasher(hashFactory HashFactory) *TokenHasher {
	return &TokenHasher{createHash: hashFactory}
}

func NewSHA256TokenHasher() *TokenHasher {
	return NewTokenHasher(sha256.New)
}

func (h *TokenHasher) Digest(token string) string {
	hasher := h.createHash()
	// hash.Hash.Write never returns an error
	_, _ = hasher.Write([]byte(token))
	return hex.EncodeToString(hasher.Sum(nil))
}

func (h *TokenHasher) Verify(digest, token string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(h.Digest(token))) == 1
}
