package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the connection and logging flags shared by every run
// of the keeper.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "rpc-url",
			Usage: "JSON-RPC endpoint of the Ethereum node",
			Value: "http://127.0.0.1:8545",
		},
		cli.DurationFlag{
			Name:  "rpc-timeout",
			Usage: "Timeout applied to individual JSON-RPC requests",
			Value: 10 * time.Second,
		},
		cli.StringFlag{
			Name:  "network",
			Usage: "Network the keeper runs on (mainnet, goerli, testnet)",
		},
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Directory holding the keeper's checkpoint database",
			Value: "~/.chief-keeper",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.json",
			Usage: "Emit logs as JSON instead of text",
		},
		cli.StringFlag{
			Name:  "sentry-dsn",
			Usage: "Forward error logs to this Sentry DSN",
		},
	}
}
