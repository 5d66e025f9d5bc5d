// Package dss wraps the on-chain MakerDAO governance contracts the keeper
// talks to: DS-Chief (approval voting, slates, the hat) and the executive
// spells built on DS-Pause (schedule a payload, wait out the delay, cast it).
//
// The package exposes the contracts through the Gateway interface so the
// engine never touches the RPC client directly; the bound implementation
// lives in rpc.go.
package dss

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ChiefABI is the subset of the DS-Chief ABI the keeper uses:
//   - hat(): current authority holder
//   - approvals(address): total approval weight voted onto an address
//   - slates(bytes32, uint256): indexed member lookup into a vote slate
//   - MAX_YAYS(): upper bound on slate length
//   - lift(address): move the hat to a new address
//   - event Etch(bytes32 indexed slate): slate creation marker
const ChiefABI = `[{"constant":true,"inputs":[],"name":"hat","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[{"name":"","type":"address"}],"name":"approvals","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[{"name":"","type":"bytes32"},{"name":"","type":"uint256"}],"name":"slates","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[],"name":"MAX_YAYS","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":false,"inputs":[{"name":"whom","type":"address"}],"name":"lift","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},{"anonymous":false,"inputs":[{"indexed":true,"name":"slate","type":"bytes32"}],"name":"Etch","type":"event"}]`

// SpellABI is the subset of the executive spell ABI the keeper uses:
//   - done(): terminal flag, true once the spell has been cast
//   - eta(): unix time the pause delay expires, 0 while unscheduled
//   - schedule(): plot the spell into the pause
//   - cast(): execute the spell once eta has passed
const SpellABI = `[{"constant":true,"inputs":[],"name":"done","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[],"name":"eta","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":false,"inputs":[],"name":"schedule","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},{"constant":false,"inputs":[],"name":"cast","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"}]`

var (
	chiefABI abi.ABI
	spellABI abi.ABI

	// EtchTopic is the log topic of the DS-Chief Etch(bytes32) event,
	// used to filter slate creations out of historical block ranges.
	EtchTopic common.Hash
)

func init() {
	var err error
	chiefABI, err = abi.JSON(strings.NewReader(ChiefABI))
	if err != nil {
		panic(err)
	}
	spellABI, err = abi.JSON(strings.NewReader(SpellABI))
	if err != nil {
		panic(err)
	}
	EtchTopic = crypto.Keccak256Hash([]byte("Etch(bytes32)"))
}
