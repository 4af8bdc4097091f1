package token

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokengate-xyz/go-tokengate/timelock"
)

// ErrUnknownCommand reports an unrecognized governance operation.
var ErrUnknownCommand = errors.New("token: unknown governance command")

// Command is the JSON payload carried by timelocked governance calls.
type Command struct {
	Op             string          `json:"op"`
	Implementation string          `json:"implementation,omitempty"`
	InitData       json.RawMessage `json:"init_data,omitempty"`
}

// UpgradeCommand encodes an upgradeTo governance payload.
func UpgradeCommand(id common.Hash, initData []byte) ([]byte, error) {
	return json.Marshal(Command{
		Op:             "upgradeTo",
		Implementation: id.Hex(),
		InitData:       initData,
	})
}

// GovernanceHandler returns the timelock handler for this token. Commands
// execute with governor as the caller, so granting roles (typically just
// the upgrader role) to the governor address puts those operations under
// timelock control.
func (t *Token) GovernanceHandler(governor common.Address) timelock.Handler {
	return func(payload []byte) error {
		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("token: decode governance payload: %w", err)
		}
		switch cmd.Op {
		case "upgradeTo":
			return t.UpgradeTo(governor, common.HexToHash(cmd.Implementation), cmd.InitData)
		case "pause":
			return t.Pause(governor)
		case "unpause":
			return t.Unpause(governor)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
		}
	}
}
