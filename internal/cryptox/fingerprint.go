// Package cryptox computes content fingerprints used to recognise repeated
// requests and to key cached vendor responses.
package cryptox

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex BLAKE2b-256 digest over parts. Each part is
// length-prefixed so ("ab","c") and ("a","bc") differ.
func Fingerprint(parts ...string) string {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		_, _ = io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintBytes returns a hex BLAKE2b-256 digest of data prefixed by label.
func FingerprintBytes(label string, data []byte) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%d:%s", len(label), label)
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintFile streams the file at path through BLAKE2b-256.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
