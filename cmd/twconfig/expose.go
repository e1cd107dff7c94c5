package main

import (
	"github.com/spf13/cobra"

	"github.com/yacobolo/twconfig"
	"github.com/yacobolo/twconfig/internal/tree"
)

var exposeCmd = &cobra.Command{
	Use:   "expose",
	Short: "Write the resolved config as importable modules",
	Long: `Build the config and write it as a graph of ES modules with type
declarations, one module per object node down to --level.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		result, err := setup(cmd, func(config *twconfig.Config) {
			config.Module = exposeOptions(config.Module)
			config.WriteModules = true
		})
		if err != nil {
			return err
		}
		return printResult(cmd, result, twconfig.OutputModules)
	},
}

func init() {
	addBuildFlags(exposeCmd)
	f := exposeCmd.Flags()
	f.Int("level", 2, "Depth of the generated module graph")
	f.String("alias", "#tailwind-config", "Import alias of the root module")
}

// exposeOptions enables exposeConfig on module, keeping its configured
// values unless overridden by flags.
func exposeOptions(module *tree.Map) *tree.Map {
	module = module.Clone()

	expose := tree.NewMap()
	if v, ok := module.Get("exposeConfig"); ok {
		if m, ok := tree.AsMap(v); ok {
			expose = m.Clone()
		}
	}
	if k.Exists("level") || k.Exists("expose.level") || !expose.Has("level") {
		expose.Set("level", tree.Number(getIntWithFallback("level", "expose.level", 2)))
	}
	if alias := getStringWithFallback("alias", "expose.alias", ""); alias != "" {
		expose.Set("alias", tree.String(alias))
	}
	module.Set("exposeConfig", expose)
	return module
}
