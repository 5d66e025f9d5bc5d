package main

import (
	"fmt"
	"os"

	"github.com/keeper-works/go-chief-keeper/cmd/chief/launcher"
)

func main() {
	if err := launcher.Launch(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
