package token

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokengate-xyz/go-tokengate/eventlog"
	"github.com/tokengate-xyz/go-tokengate/layout"
	"github.com/tokengate-xyz/go-tokengate/upgrade"
)

// Shipped implementation versions. v1 is the genesis bridged token; v2 adds
// the sender allowlist, and its post-upgrade initializer may switch
// enforcement on.
var (
	VersionV1 = common.Hash(crypto.Keccak256([]byte("tokengate.token.v1")))
	VersionV2 = common.Hash(crypto.Keccak256([]byte("tokengate.token.v2")))
)

// LayoutV1 returns the genesis storage layout.
func LayoutV1() layout.Schema {
	return layout.Schema{
		Version: "v1",
		Fields: []layout.Field{
			{Name: "name", Slot: 0, Type: "string"},
			{Name: "symbol", Slot: 1, Type: "string"},
			{Name: "decimals", Slot: 2, Type: "uint8"},
			{Name: "totalSupply", Slot: 3, Type: "uint256"},
			{Name: "balances", Slot: 4, Type: "mapping(address=>uint256)"},
			{Name: "allowances", Slot: 5, Type: "mapping(address=>mapping(address=>uint256))"},
			{Name: "bridge", Slot: 6, Type: "address"},
			{Name: "paused", Slot: 7, Type: "bool"},
			{Name: "roles", Slot: 8, Type: "mapping(bytes32=>mapping(address=>bool))"},
		},
		Gap: 50,
	}
}

// LayoutV2 returns the v2 layout: v1 plus the allowlist fields, taken out of
// the gap.
func LayoutV2() layout.Schema {
	s := LayoutV1()
	s.Version = "v2"
	s.Fields = append(s.Fields,
		layout.Field{Name: "allowlist", Slot: 9, Type: "mapping(address=>bool)"},
		layout.Field{Name: "allowlistEnabled", Slot: 10, Type: "bool"},
	)
	s.Gap = 48
	return s
}

// Layouts returns the published layouts by version name, for the layout
// diff tool.
func Layouts() map[string]layout.Schema {
	return map[string]layout.Schema{
		"v1": LayoutV1(),
		"v2": LayoutV2(),
	}
}

type implV1 struct{}

func (*implV1) ID() common.Hash          { return VersionV1 }
func (*implV1) ProxiableID() common.Hash { return upgrade.ProxiableMarker }
func (*implV1) Layout() layout.Schema    { return LayoutV1() }
func (*implV1) PostUpgrade([]byte) error { return nil }

// V2InitData is the post-upgrade initializer payload for v2.
type V2InitData struct {
	EnableAllowlist bool `json:"enable_allowlist"`
}

type implV2 struct {
	tok *Token
}

func (*implV2) ID() common.Hash          { return VersionV2 }
func (*implV2) ProxiableID() common.Hash { return upgrade.ProxiableMarker }
func (*implV2) Layout() layout.Schema    { return LayoutV2() }

// PostUpgrade switches allowlist enforcement on when requested. It runs
// under the token mutex, inside the upgrade that activates v2.
func (v *implV2) PostUpgrade(data []byte) error {
	var init V2InitData
	if err := json.Unmarshal(data, &init); err != nil {
		return fmt.Errorf("token: decode v2 init data: %w", err)
	}
	if init.EnableAllowlist {
		v.tok.gate.SetAllowlistEnabled(true)
		v.tok.emit(eventlog.KindAllowlistEnabledSet, eventlog.AllowlistEnabledEvent{Enabled: true})
	}
	return nil
}
