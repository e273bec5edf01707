package main

import (
	"agentbacktest/cmd"
	"os"

	"go.uber.org/zap"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		zap.S().Error(err)
		os.Exit(1)
	}
}
