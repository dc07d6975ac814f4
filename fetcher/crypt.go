package fetcher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
)

// cipherSpec is everything needed to decrypt one AES-128 segment.
type cipherSpec struct {
	key []byte
	iv  []byte
}

func (c cipherSpec) open(data []byte) ([]byte, error) {
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("encrypted segment size %d is not a multiple of the block size", len(data))
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, c.iv).CryptBlocks(out, data)
	return unpad(out), nil
}

// unpad strips PKCS#7 padding, leaving data untouched when none is present.
func unpad(data []byte) []byte {
	if len(data) == 0 {
		return data
	}

	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return data
	}

	if !bytes.Equal(data[len(data)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return data
	}

	return data[:len(data)-n]
}

// keyring caches keys by URI for the duration of one download.
type keyring struct {
	fetch func(uri string) ([]byte, error)
	keys  map[string][]byte
}

func newKeyring(fetch func(uri string) ([]byte, error)) *keyring {
	return &keyring{fetch: fetch, keys: make(map[string][]byte)}
}

func (k *keyring) spec(uri string, key *m3u8.Key, seq uint64) (cipherSpec, error) {
	if key.Method != "AES-128" {
		return cipherSpec{}, fmt.Errorf("unsupported encryption method %s", key.Method)
	}

	if key.URI == "" {
		return cipherSpec{}, errors.New("encryption key has no URI")
	}

	raw, ok := k.keys[uri]
	if !ok {
		var err error
		if raw, err = k.fetch(uri); err != nil {
			return cipherSpec{}, fmt.Errorf("fetch key: %w", err)
		}
		if len(raw) != aes.BlockSize {
			return cipherSpec{}, fmt.Errorf("key has %d bytes, want %d", len(raw), aes.BlockSize)
		}
		k.keys[uri] = raw
	}

	iv, err := parseIV(key.IV, seq)
	if err != nil {
		return cipherSpec{}, err
	}

	return cipherSpec{key: raw, iv: iv}, nil
}

// parseIV decodes an explicit IV or derives one from the media sequence number.
func parseIV(value string, seq uint64) ([]byte, error) {
	if value == "" {
		iv := make([]byte, aes.BlockSize)
		binary.BigEndian.PutUint64(iv[8:], seq)
		return iv, nil
	}

	value = strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	iv, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("parse IV: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("IV has %d bytes, want %d", len(iv), aes.BlockSize)
	}

	return iv, nil
}
