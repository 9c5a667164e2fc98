package main

import (
	"fmt"
	"os"

	"github.com/MrSnakeDoc/tlama/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ tlama: %v\n", err)
		os.Exit(1)
	}
}
