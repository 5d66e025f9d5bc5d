package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/keeper-works/go-chief-keeper/datastore"
	"github.com/keeper-works/go-chief-keeper/dss"
	"github.com/keeper-works/go-chief-keeper/flags"
	"github.com/keeper-works/go-chief-keeper/keeper"
	"github.com/keeper-works/go-chief-keeper/utils/logsetup"
)

var app = flags.NewApp()

func init() {
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.KeeperFlags()...)
	app.Flags = append(app.Flags, flags.TxFlags()...)
	app.Action = run
}

// Launch parses flags and runs the keeper until a signal or termination.
func Launch(args []string) error {
	return app.Run(args)
}

func run(cliCtx *cli.Context) error {
	cfg, err := MakeConfig(cliCtx)
	if err != nil {
		return err
	}
	log, err := logsetup.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, cfg.RPC.Timeout)
	defer dialCancel()
	eth, err := ethclient.DialContext(dialCtx, cfg.RPC.URL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.RPC.URL, err)
	}
	defer eth.Close()

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	opts, err := makeTransactor(cfg.Tx, chainID)
	if err != nil {
		return err
	}

	chief := common.HexToAddress(cfg.Deployment.Chief)
	store := datastore.NewStore(cfg.Node.DataDir, cfg.Node.Network, log.WithField("module", "datastore"))
	gw := dss.NewClient(eth, chief, opts, log.WithField("module", "dss"))
	k := keeper.New(gw, store, keeper.Config{
		DeploymentBlock: cfg.Deployment.DeploymentBlock,
		MaxErrors:       cfg.Keeper.MaxErrors,
		PollInterval:    cfg.Keeper.PollInterval,
	}, log.WithField("module", "keeper"))

	printBanner(ctx, eth, log, cfg, opts.From, chief)

	if err := k.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// printBanner logs the deployment details so the operator can confirm the
// keeper is pointed at the right contracts and is funded.
func printBanner(ctx context.Context, eth *ethclient.Client, log *logrus.Logger, cfg Config, from, chief common.Address) {
	fields := logrus.Fields{
		"network": cfg.Node.Network,
		"chief":   chief.Hex(),
		"account": from.Hex(),
	}
	if balance, err := eth.BalanceAt(ctx, from, nil); err == nil {
		ethBalance := new(big.Float).Quo(new(big.Float).SetInt(balance), big.NewFloat(params.Ether))
		fields["balance"] = fmt.Sprintf("%.4f ETH", ethBalance)
	}
	log.WithFields(fields).Info("chief-keeper starting, please confirm the deployment details")
}

func makeTransactor(cfg TxConfig, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := os.Open(cfg.Keystore)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	defer key.Close()

	password, err := ioutil.ReadFile(cfg.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("read password file: %w", err)
	}
	opts, err := bind.NewTransactorWithChainID(key, strings.TrimSpace(string(password)), chainID)
	if err != nil {
		return nil, fmt.Errorf("unlock keystore: %w", err)
	}
	if cfg.GasPriceGwei > 0 {
		opts.GasPrice = new(big.Int).Mul(new(big.Int).SetUint64(cfg.GasPriceGwei), big.NewInt(params.GWei))
	}
	return opts, nil
}
