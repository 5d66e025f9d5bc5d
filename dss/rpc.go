package dss

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/keeper-works/go-chief-keeper/utils/retry"
)

// Client is the JSON-RPC backed Gateway. It owns no keys: transactions are
// signed through the TransactOpts supplied at construction, and the gas/fee
// policy is whatever those opts carry.
type Client struct {
	eth   *ethclient.Client
	chief *bind.BoundContract
	addr  common.Address
	opts  *bind.TransactOpts
	retry retry.Config
	log   *logrus.Entry
}

var _ Gateway = (*Client)(nil)

// NewClient binds the chief contract at the given address over the dialed
// ethclient. opts must carry the keeper's signer; key management happens in
// the launcher.
func NewClient(eth *ethclient.Client, chief common.Address, opts *bind.TransactOpts, log *logrus.Entry) *Client {
	return &Client{
		eth:   eth,
		chief: bind.NewBoundContract(chief, chiefABI, eth, eth, eth),
		addr:  chief,
		opts:  opts,
		retry: retry.DefaultConfig(),
		log:   log,
	}
}

// ChiefAddress returns the bound DS-Chief address.
func (c *Client) ChiefAddress() common.Address {
	return c.addr
}

func (c *Client) spellAt(addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, spellABI, c.eth, c.eth, c.eth)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head uint64
	err := retry.Do(ctx, c.retry, c.log, "eth_blockNumber", func() error {
		var err error
		head, err = c.eth.BlockNumber(ctx)
		return err
	})
	return head, err
}

func (c *Client) BlockTime(ctx context.Context, height uint64) (uint64, error) {
	var ts uint64
	err := retry.Do(ctx, c.retry, c.log, "eth_getHeader", func() error {
		header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
		if err != nil {
			return err
		}
		ts = header.Time
		return nil
	})
	return ts, err
}

func (c *Client) PastEtches(ctx context.Context, fromBlock, toBlock uint64) ([]Etch, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.addr},
		Topics:    [][]common.Hash{{EtchTopic}},
	}

	var etches []Etch
	err := retry.Do(ctx, c.retry, c.log, "eth_getLogs", func() error {
		logs, err := c.eth.FilterLogs(ctx, query)
		if err != nil {
			return err
		}
		etches = etches[:0]
		for _, l := range logs {
			if l.Removed || len(l.Topics) < 2 {
				continue
			}
			etches = append(etches, Etch{Slate: l.Topics[1], Block: l.BlockNumber})
		}
		return nil
	})
	return etches, err
}

func (c *Client) SlateMember(ctx context.Context, slate common.Hash, index uint64) (common.Address, bool, error) {
	var (
		addr common.Address
		ok   bool
	)
	err := retry.Do(ctx, c.retry, c.log, "chief.slates", func() error {
		var out []interface{}
		err := c.chief.Call(&bind.CallOpts{Context: ctx}, &out, "slates", slate, new(big.Int).SetUint64(index))
		if err != nil {
			if isOutOfRange(err) {
				ok = false
				return nil
			}
			return err
		}
		addr = *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
		ok = true
		return nil
	})
	return addr, ok, err
}

func (c *Client) MaxYays(ctx context.Context) (uint64, error) {
	var max uint64
	err := retry.Do(ctx, c.retry, c.log, "chief.MAX_YAYS", func() error {
		var out []interface{}
		if err := c.chief.Call(&bind.CallOpts{Context: ctx}, &out, "MAX_YAYS"); err != nil {
			return err
		}
		max = (*abi.ConvertType(out[0], new(*big.Int)).(**big.Int)).Uint64()
		return nil
	})
	return max, err
}

func (c *Client) Hat(ctx context.Context) (common.Address, error) {
	var hat common.Address
	err := retry.Do(ctx, c.retry, c.log, "chief.hat", func() error {
		var out []interface{}
		if err := c.chief.Call(&bind.CallOpts{Context: ctx}, &out, "hat"); err != nil {
			return err
		}
		hat = *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
		return nil
	})
	return hat, err
}

func (c *Client) Approvals(ctx context.Context, yay common.Address) (*big.Int, error) {
	var approvals *big.Int
	err := retry.Do(ctx, c.retry, c.log, "chief.approvals", func() error {
		var out []interface{}
		if err := c.chief.Call(&bind.CallOpts{Context: ctx}, &out, "approvals", yay); err != nil {
			return err
		}
		approvals = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
		return nil
	})
	return approvals, err
}

func (c *Client) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	var deployed bool
	err := retry.Do(ctx, c.retry, c.log, "eth_getCode", func() error {
		code, err := c.eth.CodeAt(ctx, addr, nil)
		if err != nil {
			return err
		}
		deployed = len(code) > 0
		return nil
	})
	return deployed, err
}

func (c *Client) SpellDone(ctx context.Context, spell common.Address) (bool, error) {
	var done bool
	bound := c.spellAt(spell)
	err := retry.Do(ctx, c.retry, c.log, "spell.done", func() error {
		var out []interface{}
		if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "done"); err != nil {
			return err
		}
		done = *abi.ConvertType(out[0], new(bool)).(*bool)
		return nil
	})
	return done, err
}

func (c *Client) SpellEta(ctx context.Context, spell common.Address) (uint64, error) {
	var eta uint64
	bound := c.spellAt(spell)
	err := retry.Do(ctx, c.retry, c.log, "spell.eta", func() error {
		var out []interface{}
		err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "eta")
		if err != nil {
			// Spells without the pause wired up yet revert here; the
			// engine treats that the same as "not scheduled".
			if isOutOfRange(err) {
				eta = 0
				return nil
			}
			return err
		}
		eta = (*abi.ConvertType(out[0], new(*big.Int)).(**big.Int)).Uint64()
		return nil
	})
	return eta, err
}

func (c *Client) Lift(ctx context.Context, whom common.Address) error {
	opts := *c.opts
	opts.Context = ctx
	tx, err := c.chief.Transact(&opts, "lift", whom)
	if err != nil {
		return fmt.Errorf("lift %s: %w", whom.Hex(), err)
	}
	c.log.WithFields(logrus.Fields{"whom": whom.Hex(), "tx": tx.Hash().Hex()}).Info("submitted lift")
	return nil
}

func (c *Client) Schedule(ctx context.Context, spell common.Address) error {
	opts := *c.opts
	opts.Context = ctx
	tx, err := c.spellAt(spell).Transact(&opts, "schedule")
	if err != nil {
		return fmt.Errorf("schedule %s: %w", spell.Hex(), err)
	}
	c.log.WithFields(logrus.Fields{"spell": spell.Hex(), "tx": tx.Hash().Hex()}).Info("submitted schedule")
	return nil
}

func (c *Client) Cast(ctx context.Context, spell common.Address) error {
	opts := *c.opts
	opts.Context = ctx
	tx, err := c.spellAt(spell).Transact(&opts, "cast")
	if err != nil {
		return fmt.Errorf("cast %s: %w", spell.Hex(), err)
	}
	c.log.WithFields(logrus.Fields{"spell": spell.Hex(), "tx": tx.Hash().Hex()}).Info("submitted cast")
	return nil
}

// isOutOfRange classifies eth_call failures that mean "the contract refused
// the read", as opposed to transport problems. Indexed slate lookups past the
// slate's true length hit an invalid opcode in DS-Chief, and some nodes hand
// the empty returndata straight to the ABI decoder instead of reporting the
// revert.
func isOutOfRange(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "invalid opcode") ||
		strings.Contains(msg, "out of gas") ||
		strings.Contains(msg, "abi: attempting to unmarshall an empty string")
}
