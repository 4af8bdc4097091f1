// Package eventlog emits and stores the structured change records produced
// by the token core: transfers, approvals, role and allowlist changes,
// pause toggles, upgrades and timelock operations.
//
// A Journal is an observer for external indexing. Appends happen after the
// corresponding state change has committed; a journal failure is surfaced
// to the caller but never rolls the ledger back.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the type of a change record.
type Kind string

const (
	KindTransfer            Kind = "transfer"
	KindApproval            Kind = "approval"
	KindRoleGranted         Kind = "role_granted"
	KindRoleRevoked         Kind = "role_revoked"
	KindAllowlistUpdated    Kind = "allowlist_updated"
	KindAllowlistEnabledSet Kind = "allowlist_enabled_set"
	KindPaused              Kind = "paused"
	KindUnpaused            Kind = "unpaused"
	KindBridgeUpdated       Kind = "bridge_updated"
	KindUpgraded            Kind = "upgraded"
	KindOperationScheduled  Kind = "operation_scheduled"
	KindOperationExecuted   Kind = "operation_executed"
	KindOperationCancelled  Kind = "operation_cancelled"
)

// Record is one persisted change record.
type Record struct {
	ID      string          `json:"id"`
	Seq     uint64          `json:"seq"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// Recorder is the write side of a journal. The core only depends on this.
type Recorder interface {
	// Append stores a change record of the given kind. The payload is
	// marshalled to JSON.
	Append(kind Kind, payload any) error
}

// Journal is a persistent, readable event journal.
type Journal interface {
	Recorder

	// Read returns all records with Seq >= since, in sequence order.
	Read(ctx context.Context, since uint64) ([]Record, error)

	// Close releases any underlying resources.
	Close() error
}

// newRecord assigns identity, sequence and timestamp to a payload.
func newRecord(seq uint64, kind Kind, payload any) (Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Record{}, fmt.Errorf("eventlog: marshal %s payload: %w", kind, err)
	}
	return Record{
		ID:      uuid.New().String(),
		Seq:     seq,
		Kind:    kind,
		Payload: data,
		At:      time.Now().UTC(),
	}, nil
}
