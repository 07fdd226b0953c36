package main

import (
	"fmt"
	"os"

	"github.com/jmylchreest/immich-offline-remover/cmd/immich-offline-remover/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
