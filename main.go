package main

import (
	"os"

	"github.com/farhanali/weather-etl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
