package main

import (
	"log"
	"os"
)

func main() {
	defer cleanup()
	if len(os.Args) > 2 {
		log.Fatalf("too many args: %d", len(os.Args)) // want `использование log.Fatalf в main запрещено`
	}
	os.Exit(1) // want `использование os.Exit в main запрещено`
}

func cleanup() {}
