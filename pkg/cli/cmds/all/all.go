// Package all registers every shell command.
package all

import (
	_ "github.com/robotalks/rig.go/pkg/cli/cmds/board"
	_ "github.com/robotalks/rig.go/pkg/cli/cmds/link"
)
