package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/tgcg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
