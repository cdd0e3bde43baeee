package abbrev

func strp(s string) *string { return &s }

// Abbreviations is the canonical long->short table for invitation payloads.
var Abbreviations = ContextFreeTable{
	"statusCode":        "sc",
	"connReqId":         "id",
	"senderDetail":      "s",
	"name":              "n",
	"agentKeyDlgProof":  "dp",
	"agentDID":          "d",
	"agentDelegatedKey": "k",
	"signature":         "s",
	"DID":               "d",
	"logoUrl":           "l",
	"verKey":            "v",
	"senderAgencyDetail": "sa",
	"endpoint":          "e",
	"targetName":        "t",
	"statusMsg":         "sm",
}

// Unabbreviations is the canonical (short, parent) -> long table, ordered so
// that more specific (parent-qualified) rules are reachable even though a
// same-named root rule appears earlier in the list; a root rule (Parent ==
// nil) only ever matches a key with no enclosing key of its own.
var Unabbreviations = ContextSensitiveTable{
	{Short: "sc", Parent: nil, Long: "statusCode"},
	{Short: "id", Parent: nil, Long: "connReqId"},
	{Short: "s", Parent: nil, Long: "senderDetail"},
	{Short: "n", Parent: strp("senderDetail"), Long: "name"},
	{Short: "dp", Parent: strp("senderDetail"), Long: "agentKeyDlgProof"},
	{Short: "d", Parent: strp("agentKeyDlgProof"), Long: "agentDID"},
	{Short: "k", Parent: strp("agentKeyDlgProof"), Long: "agentDelegatedKey"},
	{Short: "s", Parent: strp("agentKeyDlgProof"), Long: "signature"},
	{Short: "d", Parent: strp("senderDetail"), Long: "DID"},
	{Short: "l", Parent: strp("senderDetail"), Long: "logoUrl"},
	{Short: "v", Parent: strp("senderDetail"), Long: "verKey"},
	{Short: "sa", Parent: nil, Long: "senderAgencyDetail"},
	{Short: "d", Parent: strp("senderAgencyDetail"), Long: "DID"},
	{Short: "v", Parent: strp("senderAgencyDetail"), Long: "verKey"},
	{Short: "e", Parent: strp("senderAgencyDetail"), Long: "endpoint"},
	{Short: "t", Parent: nil, Long: "targetName"},
	{Short: "sm", Parent: nil, Long: "statusMsg"},
}
