// Package main is the entry point for themetester.
package main

import (
	"github.com/samber/lo"
	"github.com/themetester/themetester/cmd"
	"github.com/themetester/themetester/config"
	"github.com/themetester/themetester/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
