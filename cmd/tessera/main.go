package main

import (
	"fmt"
	"os"

	"github.com/tessera-chain/go-tessera/cmd/tessera/launcher"
)

func main() {
	if err := launcher.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
