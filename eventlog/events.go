package eventlog

import "time"

// Event payloads. Addresses, hashes and role ids travel as 0x-hex strings;
// amounts as decimal strings, since 256-bit values do not fit JSON numbers.

// TransferEvent records a balance movement. Mints carry the zero address as
// From, burns as To.
type TransferEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// ApprovalEvent records an allowance assignment.
type ApprovalEvent struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// RoleEvent records a role membership change.
type RoleEvent struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	Sender  string `json:"sender"`
}

// AllowlistEvent records a membership change for one or more accounts.
type AllowlistEvent struct {
	Accounts []string `json:"accounts"`
	Allowed  bool     `json:"allowed"`
}

// AllowlistEnabledEvent records the enforcement switch changing.
type AllowlistEnabledEvent struct {
	Enabled bool `json:"enabled"`
}

// PauseEvent records a pause or unpause, naming the pauser.
type PauseEvent struct {
	Sender string `json:"sender"`
}

// BridgeEvent records the bridge capability being re-pointed.
type BridgeEvent struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// UpgradeEvent records a completed version swap.
type UpgradeEvent struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// OperationEvent records a timelock operation transition.
type OperationEvent struct {
	OperationID string    `json:"operation_id"`
	Target      string    `json:"target,omitempty"`
	Predecessor string    `json:"predecessor,omitempty"`
	Salt        string    `json:"salt,omitempty"`
	Eta         time.Time `json:"eta,omitzero"`
}
