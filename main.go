package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"library-catalog/cmd"
	"library-catalog/config"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		cmd.NewRootCmd(),
		fang.WithVersion(config.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
