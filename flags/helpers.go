package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp returns the keeper's CLI app skeleton; the launcher attaches the
// flags and the action.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "chief-keeper"
	app.Usage = "Keeper that lifts the hat and casts scheduled executive spells"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	return app
}
