// Command drugqa answers drug pricing and regulatory questions over
// per-tenant document indexes.
//
// Usage:
//
//	drugqa [--env local] [--config path] <command>
//
// Commands:
//
//	serve    - run the HTTP API
//	ask      - answer one question from the command line
//	ingest   - chunk, embed and index plain-text documents
//	purge    - remove a drug or a file from a tenant index
//	stats    - describe a tenant index
//	version  - show build information
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
