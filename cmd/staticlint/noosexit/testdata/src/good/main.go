package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func run() error {
	if len(os.Args) > 5 {
		os.Exit(2)
	}
	return nil
}
