package nostr

import (
	"errors"
	"testing"
)

const (
	testNpub   = "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg"
	testPubHex = "7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e"
)

func TestDecodePublicKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"npub", testNpub, testPubHex, false},
		{"hex", testPubHex, testPubHex, false},
		{"upper hex", "7E7E9C42A91BFEF19FA929E5FDA1B72E0EBC1A4C1141673E2794234D86ADDF4E", testPubHex, false},
		{"padded", "  " + testPubHex + "\n", testPubHex, false},
		{"short hex", "abcd", "", true},
		{"bad checksum", testNpub[:len(testNpub)-1] + "q", "", true},
		{"not hex", "zz7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePublicKey(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPublicKey) {
					t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodePublicKey(t *testing.T) {
	got, err := EncodePublicKey(testPubHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != testNpub {
		t.Fatalf("got %s, want %s", got, testNpub)
	}
	if _, err := EncodePublicKey("nope"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}
