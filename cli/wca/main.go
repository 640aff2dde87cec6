package main

import (
	"os"

	wcacmder "github.com/papercomputeco/worstcase/cmd/wca"
)

func main() {
	cmd := wcacmder.NewWcaCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
