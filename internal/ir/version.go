package ir

// Version constants for the persisted schema and hashing algorithm.
const (
	// AlgoVersion identifies the content-address algorithm recorded on every
	// registry row. Changing the algorithm requires a new value.
	AlgoVersion = "sha256-128-b64url/v1"

	// EngineVersion is the snapledger version.
	EngineVersion = "0.1.0"
)
