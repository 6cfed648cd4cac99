package main

import (
	"os"

	"github.com/bloktastic/bloktastic/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := cli.NewApp(version, commit, date)
	os.Exit(app.Report(app.Execute()))
}
