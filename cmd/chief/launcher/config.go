package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/urfave/cli.v1"

	"github.com/keeper-works/go-chief-keeper/utils/logsetup"
)

// Config aggregates everything the launcher needs to run the keeper.
type Config struct {
	Node       NodeConfig
	RPC        RPCConfig
	Deployment DeploymentConfig
	Keeper     KeeperConfig
	Tx         TxConfig
	Logging    logsetup.Config
}

type NodeConfig struct {
	DataDir string
	Network string
}

type RPCConfig struct {
	URL     string
	Timeout time.Duration
}

// DeploymentConfig locates the chief contract on one network. Built-in
// values exist for the known networks; a TOML deployment file overrides
// them and adds custom networks.
type DeploymentConfig struct {
	Chief           string `toml:"chief"`
	DeploymentBlock uint64 `toml:"deployment_block"`
}

type KeeperConfig struct {
	MaxErrors    int
	PollInterval time.Duration
}

type TxConfig struct {
	Keystore     string
	PasswordFile string
	GasPriceGwei uint64
}

// deploymentFile is the TOML layout of --deployment-file:
//
//	[networks.mainnet]
//	chief = "0x..."
//	deployment_block = 11327777
type deploymentFile struct {
	Networks map[string]DeploymentConfig `toml:"networks"`
}

// MakeConfig merges defaults, the optional deployment file, and CLI flag
// overrides, then validates. Any error here is fatal: it happens before the
// block loop and consumes no error budget.
func MakeConfig(ctx *cli.Context) (Config, error) {
	defaults := DefaultConfig()

	cfg := Config{
		Node: NodeConfig{
			DataDir: defaults.DataDir,
			Network: ctx.String("network"),
		},
		RPC: RPCConfig{
			URL:     ctx.String("rpc-url"),
			Timeout: ctx.Duration("rpc-timeout"),
		},
		Keeper: KeeperConfig{
			MaxErrors:    ctx.Int("max-errors"),
			PollInterval: ctx.Duration("poll-interval"),
		},
		Tx: TxConfig{
			Keystore:     ctx.String("keystore"),
			PasswordFile: ctx.String("password-file"),
			GasPriceGwei: ctx.Uint64("gas-price"),
		},
		Logging: logsetup.Config{
			Verbosity: ctx.Int("log.verbosity"),
			JSON:      ctx.Bool("log.json"),
			SentryDSN: ctx.String("sentry-dsn"),
		},
	}
	if ctx.IsSet("datadir") {
		cfg.Node.DataDir = ctx.String("datadir")
	}
	cfg.Node.DataDir = resolvePath(cfg.Node.DataDir)

	if cfg.Node.Network == "" {
		return Config{}, fmt.Errorf("--network is required")
	}

	deployments := defaults.Deployments
	if file := ctx.String("deployment-file"); file != "" {
		loaded, err := loadDeploymentFile(file)
		if err != nil {
			return Config{}, err
		}
		for name, dep := range loaded {
			deployments[name] = dep
		}
	}

	dep, ok := deployments[cfg.Node.Network]
	if !ok {
		return Config{}, fmt.Errorf("no chief deployment known for network %q", cfg.Node.Network)
	}
	cfg.Deployment = dep
	if ctx.IsSet("chief-deployment-block") {
		cfg.Deployment.DeploymentBlock = ctx.Uint64("chief-deployment-block")
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDeploymentFile(path string) (map[string]DeploymentConfig, error) {
	var file deploymentFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("load deployment file %s: %w", path, err)
	}
	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("deployment file %s defines no networks", path)
	}
	return file.Networks, nil
}

func validateConfig(cfg Config) error {
	if !common.IsHexAddress(cfg.Deployment.Chief) {
		return fmt.Errorf("invalid chief address %q for network %q", cfg.Deployment.Chief, cfg.Node.Network)
	}
	if cfg.Tx.Keystore == "" {
		return fmt.Errorf("--keystore is required")
	}
	if cfg.Tx.PasswordFile == "" {
		return fmt.Errorf("--password-file is required")
	}
	if cfg.Keeper.MaxErrors <= 0 {
		return fmt.Errorf("--max-errors must be positive, got %d", cfg.Keeper.MaxErrors)
	}
	if cfg.Keeper.PollInterval <= 0 {
		return fmt.Errorf("--poll-interval must be positive, got %s", cfg.Keeper.PollInterval)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
