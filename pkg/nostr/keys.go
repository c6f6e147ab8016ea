package nostr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// PublicKeyPrefix is the bech32 human readable part of an encoded public key
const PublicKeyPrefix = "npub"

// ErrInvalidPublicKey is returned when a key is neither 64-char hex nor an npub
var ErrInvalidPublicKey = errors.New("invalid public key")

// DecodePublicKey accepts a hex public key or an npub and returns lowercase hex
func DecodePublicKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), PublicKeyPrefix+"1") {
		hrp, data, err := bech32.Decode(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		if hrp != PublicKeyPrefix {
			return "", fmt.Errorf("%w: unexpected prefix %q", ErrInvalidPublicKey, hrp)
		}
		raw, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		if len(raw) != 32 {
			return "", fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidPublicKey, len(raw))
		}
		return hex.EncodeToString(raw), nil
	}

	if !IsValidPublicKeyHex(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPublicKey, s)
	}
	return strings.ToLower(s), nil
}

// EncodePublicKey returns the npub form of a hex public key
func EncodePublicKey(pubkeyHex string) (string, error) {
	if !IsValidPublicKeyHex(pubkeyHex) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPublicKey, pubkeyHex)
	}
	raw, _ := hex.DecodeString(pubkeyHex)
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert key bits: %w", err)
	}
	return bech32.Encode(PublicKeyPrefix, conv)
}

// IsValidPublicKeyHex reports whether s is 32 bytes of hex
func IsValidPublicKeyHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
