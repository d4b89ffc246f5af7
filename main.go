package main

import (
	"os"

	"github.com/virtool/integration-ctl/cmd"
	"github.com/virtool/integration-ctl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
