package main

import (
	"os"

	"github.com/zach-adams/wp-browsersync-reload/app"
)

func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
