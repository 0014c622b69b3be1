package signing

import (
	"fmt"
	"os"

	"github.com/nicolaschan/baybridge/canon"
)

// LoadOrGenerate reads a base64-encoded signing key seed from path,
// generating and persisting a new one if the file does not exist. The key
// file is written with 0600 permissions, matching the original
// implementation's signing-key file handling (one key per file, owner
// read/write only).
func LoadOrGenerate(path string) (SigningKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		seed, decErr := canon.DecodeFixed(string(trimNewline(data)), 32)
		if decErr != nil {
			return SigningKey{}, fmt.Errorf("signing: malformed key file %s: %w", path, decErr)
		}
		return FromBytes(seed)
	}
	if !os.IsNotExist(err) {
		return SigningKey{}, fmt.Errorf("signing: reading key file %s: %w", path, err)
	}

	key, err := Generate()
	if err != nil {
		return SigningKey{}, fmt.Errorf("signing: generating key: %w", err)
	}
	encoded := canon.EncodeBytes(key.Seed())
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return SigningKey{}, fmt.Errorf("signing: writing key file %s: %w", path, err)
	}
	return key, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
