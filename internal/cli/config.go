package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/shelf/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, cfg)
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	},
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that override config keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := config.Keys()
		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			env := make(map[string]string, len(keys))
			for _, key := range keys {
				env[key] = config.EnvVar(key)
			}
			return WriteOutput(out, env)
		}

		rows := make([][]string, 0, len(keys))
		for _, key := range keys {
			rows = append(rows, []string{key, config.EnvVar(key)})
		}
		if err := writeTable(out, []string{"KEY", "VARIABLE"}, rows); err != nil {
			return fmt.Errorf("failed to write table: %w", err)
		}
		return nil
	},
}
