package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// KeeperFlags holds knobs specific to the governance engine (deployment
// data, error budget, polling cadence).
func KeeperFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "deployment-file",
			Usage: "TOML file describing per-network chief deployments (overrides built-ins)",
		},
		cli.Uint64Flag{
			Name:  "chief-deployment-block",
			Usage: "Block the chief contract was deployed at; start of the initial scan",
		},
		cli.IntFlag{
			Name:  "max-errors",
			Usage: "Maximum number of failed block iterations before the keeper terminates",
			Value: 100,
		},
		cli.DurationFlag{
			Name:  "poll-interval",
			Usage: "How often to poll the node for a new chain head",
			Value: 10 * time.Second,
		},
	}
}

// TxFlags covers transaction signing and fee policy.
func TxFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "keystore",
			Usage: "Path to the encrypted keystore JSON of the keeper account",
		},
		cli.StringFlag{
			Name:  "password-file",
			Usage: "File containing the keystore passphrase",
		},
		cli.Uint64Flag{
			Name:  "gas-price",
			Usage: "Fixed gas price in gwei (0 uses the node's suggestion)",
		},
	}
}
