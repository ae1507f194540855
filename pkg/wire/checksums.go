package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"strings"
)

// ChecksumAlgorithm selects how Checksum digests data.
type ChecksumAlgorithm int

const (
	ChecksumSHA256 ChecksumAlgorithm = iota
	ChecksumAdler32
)

func (c ChecksumAlgorithm) String() string {
	switch c {
	case ChecksumSHA256:
		return "sha256"
	case ChecksumAdler32:
		return "adler32"
	default:
		return "unknown"
	}
}

// Adler32 is the payload checksum carried in descriptors.
func Adler32(data []byte) uint32 {
	return adler32.Checksum(data)
}

// Checksum returns the digest of data as "algorithm:hex", e.g.
// "sha256:c0ffee..." or "adler32:babe1337".
func Checksum(data []byte, algorithm ChecksumAlgorithm) string {
	var h hash.Hash
	switch algorithm {
	case ChecksumAdler32:
		h = adler32.New()
	default:
		algorithm = ChecksumSHA256
		h = sha256.New()
	}
	h.Write(data)
	return algorithm.String() + ":" + hex.EncodeToString(h.Sum(nil))
}

// ParseChecksum splits a prefixed checksum. Unprefixed values are guessed
// from their length.
func ParseChecksum(s string) (ChecksumAlgorithm, string, error) {
	name, value, ok := strings.Cut(s, ":")
	if !ok {
		if len(s) == 8 {
			return ChecksumAdler32, s, nil
		}
		return ChecksumSHA256, s, nil
	}

	switch name {
	case "sha256":
		return ChecksumSHA256, value, nil
	case "adler32":
		return ChecksumAdler32, value, nil
	default:
		return ChecksumSHA256, "", fmt.Errorf("unknown checksum algorithm: %s", name)
	}
}

// VerifyChecksum reports whether data matches a prefixed checksum.
func VerifyChecksum(data []byte, checksum string) (bool, error) {
	algo, want, err := ParseChecksum(checksum)
	if err != nil {
		return false, err
	}
	_, got, _ := strings.Cut(Checksum(data, algo), ":")
	return strings.EqualFold(got, want), nil
}
