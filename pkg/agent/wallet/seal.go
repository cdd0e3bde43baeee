package wallet

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// SealV2 encrypts plaintext to recipientPub, producing the wire bytes a
// V2 DecryptPayloadV2 call expects. It is exported so a peer agent (or a
// test standing in for one) can construct a valid acceptance payload
// without reaching into wallet internals.
func SealV2(recipientPub []byte, plaintext []byte) ([]byte, error) {
	env, err := seal(recipientPub, plaintext)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(env)
}

// SealV1 wraps (senderVerkey, msg) in the v1Inner envelope and seals it to
// recipientPub, producing the wire bytes a V1 Unpack call expects.
func SealV1(recipientPub []byte, senderVerkey string, msg []byte) ([]byte, error) {
	inner, err := msgpack.Marshal(v1Inner{SenderVerkey: senderVerkey, Msg: msg})
	if err != nil {
		return nil, fmt.Errorf("seal v1: marshal inner: %w", err)
	}
	env, err := seal(recipientPub, inner)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(env)
}

func seal(recipientPub []byte, plaintext []byte) (sealEnvelope, error) {
	if len(recipientPub) != 32 {
		return sealEnvelope{}, fmt.Errorf("seal: recipient key must be 32 bytes")
	}

	var ephPriv [32]byte
	if _, err := io.ReadFull(rand.Reader, ephPriv[:]); err != nil {
		return sealEnvelope{}, err
	}
	ephPriv[0] &= 248
	ephPriv[31] &= 127
	ephPriv[31] |= 64

	var ephPub [32]byte
	curve25519.ScalarBaseMult(&ephPub, &ephPriv)

	var recipient [32]byte
	copy(recipient[:], recipientPub)

	shared, err := curve25519.X25519(ephPriv[:], recipient[:])
	if err != nil {
		return sealEnvelope{}, fmt.Errorf("ecdh: %w", err)
	}

	key := deriveAEADKey(shared, ephPub[:])
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return sealEnvelope{}, err
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return sealEnvelope{}, err
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return sealEnvelope{
		EphemeralPub: ephPub[:],
		Nonce:        nonce,
		Ciphertext:   ciphertext,
	}, nil
}
