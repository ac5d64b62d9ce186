package main

import (
	"github.com/pellmont/warden/internal/cli"
	"github.com/pellmont/warden/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
