package app

import (
	"context"

	"github.com/Blackdeer1524/StorageCore/src/cli"
)

var rootCmd = cli.Init("storagectl", "Inspects and recovers a storage directory")

func MustExecute(ctx context.Context) {
	initRecover()
	initDumpLog()
	initCheckpoint()
	initStats()
	rootCmd.MustExecute(ctx)
}
