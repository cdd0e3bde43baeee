package abbrev_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/agentconn/pkg/agent/connection/abbrev"
)

func sampleInvite() map[string]any {
	raw := `{
		"statusCode": "MS-102",
		"connReqId": "req-1",
		"senderDetail": {
			"name": "Faber",
			"DID": "did:sov:abc",
			"verKey": "verkeyabc",
			"logoUrl": "https://example.com/logo.png",
			"agentKeyDlgProof": {
				"agentDID": "did:sov:agent",
				"agentDelegatedKey": "delegatedkey",
				"signature": "sigbytes"
			}
		},
		"senderAgencyDetail": {
			"DID": "did:sov:agency",
			"verKey": "agencyverkey",
			"endpoint": "https://agency.example.com"
		},
		"targetName": "faber-target",
		"statusMsg": "message sent"
	}`
	var tree map[string]any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		panic(err)
	}
	return tree
}

func TestUnabbrvAbbrvRoundTrip(t *testing.T) {
	orig := sampleInvite()

	abbreviated, err := abbrev.Abbreviate(orig, abbrev.Abbreviations)
	require.NoError(t, err)

	restored, err := abbrev.Unabbreviate(abbreviated, abbrev.Unabbreviations)
	require.NoError(t, err)

	require.Equal(t, orig, restored)
}

func TestAbbreviateCollapsesKnownKeys(t *testing.T) {
	orig := sampleInvite()

	abbreviated, err := abbrev.Abbreviate(orig, abbrev.Abbreviations)
	require.NoError(t, err)

	m := abbreviated.(map[string]any)
	require.Equal(t, "MS-102", m["sc"])
	require.Contains(t, m, "s")
	require.Contains(t, m, "sa")

	senderDetail := m["s"].(map[string]any)
	require.Contains(t, senderDetail, "dp")
	dp := senderDetail["dp"].(map[string]any)
	require.Equal(t, "sigbytes", dp["s"])
}

func TestAbbreviateThenUnabbreviateThenAbbreviateIsStable(t *testing.T) {
	orig := sampleInvite()

	abbreviated, err := abbrev.Abbreviate(orig, abbrev.Abbreviations)
	require.NoError(t, err)

	restored, err := abbrev.Unabbreviate(abbreviated, abbrev.Unabbreviations)
	require.NoError(t, err)

	reAbbreviated, err := abbrev.Abbreviate(restored, abbrev.Abbreviations)
	require.NoError(t, err)

	require.Equal(t, abbreviated, reAbbreviated)
}

func TestUnabbreviatePassesScalarsAndRejectsUnsupportedTypes(t *testing.T) {
	_, err := abbrev.Unabbreviate(42, abbrev.Unabbreviations)
	require.NoError(t, err) // scalars pass through transparently

	_, err = abbrev.Unabbreviate(make(chan int), abbrev.Unabbreviations)
	require.Error(t, err)
}
