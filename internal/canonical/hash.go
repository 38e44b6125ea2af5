package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content hashes. The version suffix allows changing
// the canonical form later without colliding with stored hashes.
const (
	DomainDocument = "diqa/document/v1"
	DomainTrace    = "diqa/trace/v1"
)

// Hash returns the domain-separated SHA-256 of the canonical form of data.
// Format: SHA256(domain + 0x00 + canonical(data))
func Hash(domain string, data []byte) (string, error) {
	c, err := Marshal(data)
	if err != nil {
		return "", err
	}
	return hashWithDomain(domain, c), nil
}

// HashBytes returns the domain-separated SHA-256 of data as is.
func HashBytes(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
