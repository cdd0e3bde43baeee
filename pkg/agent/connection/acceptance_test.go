package connection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// v1AcceptanceWireFixture is a real V1 acceptance payload, captured as the
// plaintext MessagePack bytes that come out of the wallet seal (a
// connectionPayload{"@type", "@msg"} envelope wrapping an
// invitationAcceptanceDetails{"senderDetail"} envelope). Taken from the
// "test_parse_acceptance_details" ConnReqAnswer sample in the original VCX
// connection handshake tests, so the assertions below are checked against
// ground truth rather than a fixture this package built and re-parsed itself.
var v1AcceptanceWireFixture = []byte{
	130, 165, 64, 116, 121, 112, 101, 131, 164, 110, 97, 109, 101, 173, 99, 111,
	110, 110, 82, 101, 113, 65, 110, 115, 119, 101, 114, 163, 118, 101, 114, 163,
	49, 46, 48, 163, 102, 109, 116, 172, 105, 110, 100, 121, 46, 109, 115, 103,
	112, 97, 99, 107, 164, 64, 109, 115, 103, 220, 1, 53, 208, 129, 208, 172,
	115, 101, 110, 100, 101, 114, 68, 101, 116, 97, 105, 108, 208, 131, 208, 163,
	68, 73, 68, 208, 182, 67, 113, 85, 88, 113, 53, 114, 76, 105, 117, 82,
	111, 100, 55, 68, 67, 52, 97, 86, 84, 97, 115, 208, 166, 118, 101, 114,
	75, 101, 121, 208, 217, 44, 67, 70, 86, 87, 122, 118, 97, 103, 113, 65,
	99, 117, 50, 115, 114, 68, 106, 117, 106, 85, 113, 74, 102, 111, 72, 65,
	80, 74, 66, 111, 65, 99, 70, 78, 117, 49, 55, 113, 117, 67, 66, 57,
	118, 71, 208, 176, 97, 103, 101, 110, 116, 75, 101, 121, 68, 108, 103, 80,
	114, 111, 111, 102, 208, 131, 208, 168, 97, 103, 101, 110, 116, 68, 73, 68,
	208, 182, 57, 54, 106, 111, 119, 113, 111, 84, 68, 68, 104, 87, 102, 81,
	100, 105, 72, 49, 117, 83, 109, 77, 208, 177, 97, 103, 101, 110, 116, 68,
	101, 108, 101, 103, 97, 116, 101, 100, 75, 101, 121, 208, 217, 44, 66, 105,
	118, 78, 52, 116, 114, 53, 78, 88, 107, 69, 103, 119, 66, 56, 81, 115,
	66, 51, 109, 109, 109, 122, 118, 53, 102, 119, 122, 54, 85, 121, 53, 121,
	112, 122, 90, 77, 102, 115, 74, 56, 68, 122, 208, 169, 115, 105, 103, 110,
	97, 116, 117, 114, 101, 208, 217, 88, 77, 100, 115, 99, 66, 85, 47, 99,
	89, 75, 72, 49, 113, 69, 82, 66, 56, 80, 74, 65, 43, 48, 51, 112,
	121, 65, 80, 65, 102, 84, 113, 73, 80, 74, 102, 52, 84, 120, 102, 83,
	98, 115, 110, 81, 86, 66, 68, 84, 115, 67, 100, 119, 122, 75, 114, 52,
	54, 120, 87, 116, 80, 43, 78, 65, 68, 73, 57, 88, 68, 71, 55, 50,
	50, 103, 113, 86, 80, 77, 104, 117, 76, 90, 103, 89, 67, 103, 61, 61,
}

func TestDecodeAcceptanceV1_RealWireBytes(t *testing.T) {
	sender, err := decodeAcceptanceV1(v1AcceptanceWireFixture)
	require.NoError(t, err)
	require.Equal(t, "CqUXq5rLiuRod7DC4aVTas", sender.DID)
	require.Equal(t, "CFVWzvagqAcu2srDjujUqJfoHAPJBoAcFNu17quCB9vG", sender.VerKey)
	require.Equal(t, "96jowqoTDDhWfQdiH1uSmM", sender.AgentKeyDlgProof.AgentDID)
	require.Equal(t, "BivN4tr5NXkEgwB8QsB3mmmzv5fwz6Uy5ypzZMfsJ8Dz", sender.AgentKeyDlgProof.AgentDelegatedKey)
}
