package main

import (
	"agentbacktest/cmd"
	"os"

	"go.uber.org/zap"
)

func main() {
	zap.S().Infof("starting api, commit %s", os.Getenv("commit_hash"))
	apiHandler, err := cmd.InitializeDependencies()
	if err != nil {
		zap.S().Fatal(err)
	}
	defer cmd.CloseDependencies(apiHandler)

	err = apiHandler.StartApi(3009)
	if err != nil {
		zap.S().Fatal(err)
	}
}
