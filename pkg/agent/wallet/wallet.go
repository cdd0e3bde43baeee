// Package wallet models the wallet/key-management collaborator the
// connection core treats as external: DID/verkey creation, message
// signing, and the decrypt/unpack primitives the acceptance parser needs
// for the V1 (MessagePack) and V2 (JSON+AEAD) envelope formats.
package wallet

import "context"

// PairwiseIdentity is a freshly minted DID/verkey pair for one side of a
// relationship.
type PairwiseIdentity struct {
	DID    string
	Verkey string
}

// Wallet is the contract the connection core depends on. The concrete
// implementation owns key material; the core only ever asks it to mint
// identities, sign outbound requests, and decrypt inbound acceptance
// payloads.
type Wallet interface {
	// CreatePairwiseDID mints a fresh DID/verkey pair for a new connection.
	CreatePairwiseDID(ctx context.Context) (PairwiseIdentity, error)

	// Sign signs message under the key identified by verkey.
	Sign(ctx context.Context, verkey string, message []byte) ([]byte, error)

	// Unpack performs the V1 unwrap (crypto::parse_msg equivalent): given a
	// packed payload addressed to myVerkey, it recovers the sender's verkey
	// and the inner plaintext bytes.
	Unpack(ctx context.Context, myVerkey string, packed []byte) (senderVerkey string, plaintext []byte, err error)

	// DecryptPayloadV2 decrypts a V2 AEAD-enveloped payload addressed to
	// myVerkey, returning the cleartext JSON bytes.
	DecryptPayloadV2(ctx context.Context, myVerkey string, payload []byte) ([]byte, error)

	// EncryptionPublicKey returns the public encryption key backing
	// myVerkey, so a peer (or a test harness standing in for one) can seal
	// a payload addressed to it.
	EncryptionPublicKey(ctx context.Context, verkey string) ([]byte, error)
}
