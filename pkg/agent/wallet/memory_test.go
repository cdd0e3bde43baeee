package wallet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/agentconn/pkg/agent/wallet"
)

func TestCreatePairwiseDIDIsUnique(t *testing.T) {
	w := wallet.NewMemoryWallet()
	ctx := context.Background()

	a, err := w.CreatePairwiseDID(ctx)
	require.NoError(t, err)
	b, err := w.CreatePairwiseDID(ctx)
	require.NoError(t, err)

	require.NotEmpty(t, a.DID)
	require.NotEmpty(t, a.Verkey)
	require.NotEqual(t, a.DID, b.DID)
	require.NotEqual(t, a.Verkey, b.Verkey)
}

func TestSignProducesVerifiableSignature(t *testing.T) {
	w := wallet.NewMemoryWallet()
	ctx := context.Background()

	id, err := w.CreatePairwiseDID(ctx)
	require.NoError(t, err)

	sig, err := w.Sign(ctx, id.Verkey, []byte("hello"))
	require.NoError(t, err)
	require.NotEmpty(t, sig)
}

func TestDecryptPayloadV2RoundTrip(t *testing.T) {
	w := wallet.NewMemoryWallet()
	ctx := context.Background()

	recipient, err := w.CreatePairwiseDID(ctx)
	require.NoError(t, err)

	pub, err := w.EncryptionPublicKey(ctx, recipient.Verkey)
	require.NoError(t, err)

	plaintext := []byte(`{"sender_detail":{"DID":"did:sov:peer","verKey":"peerverkey"}}`)
	payload, err := wallet.SealV2(pub, plaintext)
	require.NoError(t, err)

	got, err := w.DecryptPayloadV2(ctx, recipient.Verkey, payload)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestUnpackV1RoundTrip(t *testing.T) {
	w := wallet.NewMemoryWallet()
	ctx := context.Background()

	recipient, err := w.CreatePairwiseDID(ctx)
	require.NoError(t, err)

	pub, err := w.EncryptionPublicKey(ctx, recipient.Verkey)
	require.NoError(t, err)

	innerMsg := []byte("inner-msgpack-bytes")
	packed, err := wallet.SealV1(pub, "sender-verkey-123", innerMsg)
	require.NoError(t, err)

	senderVerkey, msg, err := w.Unpack(ctx, recipient.Verkey, packed)
	require.NoError(t, err)
	require.Equal(t, "sender-verkey-123", senderVerkey)
	require.Equal(t, innerMsg, msg)
}

func TestDecryptPayloadV2UnknownVerkeyFails(t *testing.T) {
	w := wallet.NewMemoryWallet()
	ctx := context.Background()

	_, err := w.DecryptPayloadV2(ctx, "does-not-exist", []byte("garbage"))
	require.Error(t, err)
}
