package main

import (
	"os"

	"github.com/kylemastercoder14/HomeownersAssociation/cmd/hoactl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
