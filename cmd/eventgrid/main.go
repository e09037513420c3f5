package main

import (
	"os"
	_ "time/tzdata"

	"github.com/unihub/eventgrid/internal/app"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app.SetBuildInfo(version, commit, date)
	os.Exit(app.Execute())
}
