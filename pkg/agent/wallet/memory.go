package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	sagecrypto "github.com/sage-x-project/agentconn/crypto"
	"github.com/sage-x-project/agentconn/crypto/keys"
)

// identity bundles an Ed25519 signing keypair with an X25519 encryption
// keypair used to open sealed payloads addressed to this verkey. The verkey
// is the base64url form of the X25519 public key; the Ed25519 public key is
// not exposed, so the verkey cannot verify signatures made by Sign.
type identity struct {
	did     string
	signing sagecrypto.KeyPair
	encPriv [32]byte
	encPub  [32]byte
}

// memoryWallet is the default, in-process Wallet implementation. It models
// what the teacher's crypto.Manager + crypto/storage.memoryKeyStorage do for
// generic key management, specialized to the pairwise-DID + sealed-payload
// operations the connection core needs.
type memoryWallet struct {
	mu       sync.RWMutex
	byVerkey map[string]*identity
}

// NewMemoryWallet returns an empty in-memory Wallet.
func NewMemoryWallet() Wallet {
	return &memoryWallet{byVerkey: make(map[string]*identity)}
}

func (w *memoryWallet) CreatePairwiseDID(_ context.Context) (PairwiseIdentity, error) {
	signing, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return PairwiseIdentity{}, fmt.Errorf("generate signing key: %w", err)
	}

	var encPriv [32]byte
	if _, err := io.ReadFull(rand.Reader, encPriv[:]); err != nil {
		return PairwiseIdentity{}, fmt.Errorf("generate encryption key: %w", err)
	}
	encPriv[0] &= 248
	encPriv[31] &= 127
	encPriv[31] |= 64

	var encPub [32]byte
	curve25519.ScalarBaseMult(&encPub, &encPriv)

	verkey := base64.RawURLEncoding.EncodeToString(encPub[:])
	did := "did:sov:" + shortHash(signing.ID()+verkey)

	id := &identity{did: did, signing: signing, encPriv: encPriv, encPub: encPub}

	w.mu.Lock()
	w.byVerkey[verkey] = id
	w.mu.Unlock()

	return PairwiseIdentity{DID: did, Verkey: verkey}, nil
}

func (w *memoryWallet) Sign(_ context.Context, verkey string, message []byte) ([]byte, error) {
	id, err := w.lookup(verkey)
	if err != nil {
		return nil, err
	}
	return id.signing.Sign(message)
}

// sealEnvelope is the wire format for both V1's inner packed message and
// V2's payload: an ephemeral X25519 public key used to derive a one-time
// shared secret with the recipient's encryption key, an AEAD nonce, and the
// ciphertext.
type sealEnvelope struct {
	EphemeralPub []byte `msgpack:"ephemeral_pub" json:"ephemeral_pub"`
	Nonce        []byte `msgpack:"nonce" json:"nonce"`
	Ciphertext   []byte `msgpack:"ciphertext" json:"ciphertext"`
}

// v1Inner is the msgpack envelope carried inside a V1 sealed payload,
// pairing the sender's verkey with the opaque inner bytes (themselves a
// second layer of msgpack, decoded by the acceptance parser).
type v1Inner struct {
	SenderVerkey string `msgpack:"sender_verkey"`
	Msg          []byte `msgpack:"msg"`
}

func (w *memoryWallet) Unpack(_ context.Context, myVerkey string, packed []byte) (string, []byte, error) {
	recipient, err := w.lookup(myVerkey)
	if err != nil {
		return "", nil, err
	}

	var env sealEnvelope
	if err := msgpack.Unmarshal(packed, &env); err != nil {
		return "", nil, fmt.Errorf("unpack: malformed envelope: %w", err)
	}

	plaintext, err := openSealed(recipient.encPriv, env)
	if err != nil {
		return "", nil, fmt.Errorf("unpack: %w", err)
	}

	var inner v1Inner
	if err := msgpack.Unmarshal(plaintext, &inner); err != nil {
		return "", nil, fmt.Errorf("unpack: malformed inner envelope: %w", err)
	}

	return inner.SenderVerkey, inner.Msg, nil
}

func (w *memoryWallet) DecryptPayloadV2(_ context.Context, myVerkey string, payload []byte) ([]byte, error) {
	recipient, err := w.lookup(myVerkey)
	if err != nil {
		return nil, err
	}

	var env sealEnvelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decrypt_payload_v2: malformed envelope: %w", err)
	}

	return openSealed(recipient.encPriv, env)
}

func (w *memoryWallet) EncryptionPublicKey(_ context.Context, verkey string) ([]byte, error) {
	id, err := w.lookup(verkey)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 32)
	copy(out, id.encPub[:])
	return out, nil
}

// KeyExporter is implemented by Wallets that can persist and reload their
// key material across process restarts, e.g. a CLI that serializes a
// connection's identity alongside its entity state.
type KeyExporter interface {
	ExportIdentity(ctx context.Context, verkey string) ([]byte, error)
	ImportIdentity(ctx context.Context, data []byte) (PairwiseIdentity, error)
}

// exportedIdentity is the on-disk form of an identity's key material.
type exportedIdentity struct {
	DID         string `json:"did"`
	SigningSeed []byte `json:"signing_seed"`
	EncPriv     []byte `json:"enc_priv"`
}

func (w *memoryWallet) ExportIdentity(_ context.Context, verkey string) ([]byte, error) {
	id, err := w.lookup(verkey)
	if err != nil {
		return nil, err
	}
	priv, ok := id.signing.PrivateKey().(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("export_identity: signing key is not ed25519")
	}
	return json.Marshal(exportedIdentity{
		DID:         id.did,
		SigningSeed: priv.Seed(),
		EncPriv:     id.encPriv[:],
	})
}

func (w *memoryWallet) ImportIdentity(_ context.Context, data []byte) (PairwiseIdentity, error) {
	var exported exportedIdentity
	if err := json.Unmarshal(data, &exported); err != nil {
		return PairwiseIdentity{}, fmt.Errorf("import_identity: %w", err)
	}

	signing, err := keys.NewEd25519KeyPairFromSeed(exported.SigningSeed)
	if err != nil {
		return PairwiseIdentity{}, fmt.Errorf("import_identity: %w", err)
	}

	var encPriv [32]byte
	copy(encPriv[:], exported.EncPriv)
	var encPub [32]byte
	curve25519.ScalarBaseMult(&encPub, &encPriv)
	verkey := base64.RawURLEncoding.EncodeToString(encPub[:])

	id := &identity{did: exported.DID, signing: signing, encPriv: encPriv, encPub: encPub}

	w.mu.Lock()
	w.byVerkey[verkey] = id
	w.mu.Unlock()

	return PairwiseIdentity{DID: exported.DID, Verkey: verkey}, nil
}

func (w *memoryWallet) lookup(verkey string) (*identity, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.byVerkey[verkey]
	if !ok {
		return nil, fmt.Errorf("wallet: unknown verkey %q", verkey)
	}
	return id, nil
}

func openSealed(recipientPriv [32]byte, env sealEnvelope) ([]byte, error) {
	if len(env.EphemeralPub) != 32 {
		return nil, fmt.Errorf("sealed envelope: bad ephemeral key length")
	}
	var ephPub [32]byte
	copy(ephPub[:], env.EphemeralPub)

	shared, err := curve25519.X25519(recipientPriv[:], ephPub[:])
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}

	key := deriveAEADKey(shared, ephPub[:])
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead init: %w", err)
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("aead open: %w", err)
	}
	return plaintext, nil
}

func deriveAEADKey(sharedSecret, salt []byte) []byte {
	h := hkdf.New(sha256.New, sharedSecret, salt, []byte("agentconn/sealed-envelope"))
	key := make([]byte, chacha20poly1305.KeySize)
	io.ReadFull(h, key)
	return key
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}
