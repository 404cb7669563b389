package main

import (
	"github.com/robotalks/rig.go/pkg/cli/sh"
	"github.com/robotalks/rig.go/pkg/l1/env"

	_ "github.com/robotalks/rig.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
