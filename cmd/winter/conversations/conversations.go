// Package conversationscmder provides the conversations command.
package conversationscmder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	commoncmder "github.com/papercomputeco/winter/cmd/winter/common"
	"github.com/papercomputeco/winter/pkg/cliui"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/dotdir"
)

const conversationsLongDesc string = `List stored conversations, newest first.

Each line shows the title (the start of the first message), the number of
turns, when the conversation was last updated, and its ID. The conversation
"winter chat --resume" would continue is marked.

Examples:
  winter conversations
  winter conversations --json
  winter conversations --storage postgres`

const conversationsShortDesc string = "List stored conversations"

type conversationsCommander struct {
	json bool
}

func NewConversationsCmd() *cobra.Command {
	cmder := &conversationsCommander{}

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   conversationsShortDesc,
		Long:    conversationsLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddFlags(cmd, config.StandardFlags, config.StorageFlagKeys)
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the listing as JSON")

	return cmd
}

func (c *conversationsCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	a, err := commoncmder.OpenApp(ctx, cmd, config.StorageFlagKeys, nil, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	summaries := a.Orchestrator.Conversations(ctx)
	out := cmd.OutOrStdout()

	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	active := ""
	state, err := dotdir.NewManager().LoadActive(commoncmder.ConfigDir(cmd))
	if err != nil {
		return err
	}
	if state != nil {
		active = state.ConversationID
	}

	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Conversations"),
		cliui.DimStyle.Render("("+a.Orchestrator.Backend()+")"),
	)
	cliui.WriteConversations(out, summaries, active, time.Now())
	fmt.Fprintln(out)
	return nil
}
