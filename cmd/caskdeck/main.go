package main

import (
	"fmt"
	"os"

	"github.com/caskdeck/caskdeck/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "caskdeck:", err)
		os.Exit(1)
	}
}
