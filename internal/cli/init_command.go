package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/digest/internal/config"
)

const (
	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a configuration template holding every supported key.
By default the file is .digest.yaml in the working directory; --global writes
~/.digest/config.yaml instead. Existing files are kept unless --force is given.`
	initGlobalFlagName        = "global"
	initForceFlagName         = "force"
	initGlobalFlagDescription = "write the global configuration under the home directory"
	initForceFlagDescription  = "overwrite an existing configuration file"
	initWrittenTemplate       = "Configuration written to %s\n"
)

func createInitCommand(env environment) *cobra.Command {
	var writeGlobal bool
	var overwrite bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if writeGlobal {
				target = config.InitTargetGlobal
			}
			destination, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: overwrite})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(env.stdout, initWrittenTemplate, destination)
			return printError
		},
	}
	registerBooleanFlag(initCommand.Flags(), &writeGlobal, initGlobalFlagName, "", false, initGlobalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &overwrite, initForceFlagName, "", false, initForceFlagDescription)
	return initCommand
}
