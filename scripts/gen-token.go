//go:build ignore

// Generates a random API token suitable for API_TOKEN.
//
// Usage: go run scripts/gen-token.go
package main

import (
	"fmt"
	"os"

	"github.com/telewarm/warmup-engine-go/internal/util"
)

func main() {
	token, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
