package main

import (
	"github.com/mchmarny/scorecard/pkg/cli"
)

func main() {
	cli.Execute()
}
