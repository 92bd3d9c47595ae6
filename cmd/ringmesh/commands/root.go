package commands

import (
	"github.com/ringmesh/ringmesh/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for ringmesh
var RootCmd = &cobra.Command{
	Use:              "ringmesh",
	Short:            "ringmesh peer overlay",
	TraverseChildren: true,
}
