package main

import (
	"context"

	"github.com/Blackdeer1524/StorageCore/cmd/storagectl/app"
)

func main() {
	app.MustExecute(context.Background())
}
