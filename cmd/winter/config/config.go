// Package configcmder provides the config command for managing persistent
// winter configuration stored in the .winter/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/winter/pkg/cliui"
	"github.com/papercomputeco/winter/pkg/config"
)

const configLongDesc string = `Manage persistent winter configuration.

Configuration is stored as config.toml in the .winter/ directory and provides
default values for command flags. CLI flags and WINTER_ environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  llm.provider, llm.target, llm.model,
  conversation.assistant_name, conversation.history_turns,
  events.provider, events.topic, api.listen

Use subcommands to get, set, or list configuration values:
  winter config set <key> <value>    Set a configuration value
  winter config get <key>            Get a configuration value
  winter config list                 List all configuration values

Examples:
  winter config set llm.model llama3.2
  winter config set storage.provider postgres
  winter config get embedding.model
  winter config list`

const configShortDesc string = "Manage persistent winter configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
