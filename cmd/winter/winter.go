// Package wintercmder
package wintercmder

import (
	"github.com/spf13/cobra"

	versioncmder "github.com/papercomputeco/winter/cmd/version"
	chatcmder "github.com/papercomputeco/winter/cmd/winter/chat"
	commoncmder "github.com/papercomputeco/winter/cmd/winter/common"
	configcmder "github.com/papercomputeco/winter/cmd/winter/config"
	conversationscmder "github.com/papercomputeco/winter/cmd/winter/conversations"
	initcmder "github.com/papercomputeco/winter/cmd/winter/init"
	searchcmder "github.com/papercomputeco/winter/cmd/winter/search"
	servecmder "github.com/papercomputeco/winter/cmd/winter/serve"
)

const winterLongDesc string = `Winter is a terminal assistant with conversation memory.

Facts you keep in memory/memory.txt and memory/system.txt are answered
directly. Everything else is answered by a local model, with relevant
turns from the current conversation retrieved as context.

Start with:
  winter init          Create a local .winter/ directory
  winter chat          Start an interactive session
  winter serve         Run the HTTP API and MCP server`

const winterShortDesc string = "Winter - Conversational memory assistant"

func NewWinterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "winter",
		Short:        winterShortDesc,
		Long:         winterLongDesc,
		SilenceUsage:  true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP(commoncmder.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(commoncmder.FlagConfigDir, "", "Override the .winter/ directory location")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(conversationscmder.NewConversationsCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
