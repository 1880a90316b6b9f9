package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/MimeLyc/video-notemaker/internal/cli"
)

func main() {
	// A .env in the working directory supplies configuration during
	// development; absence is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
