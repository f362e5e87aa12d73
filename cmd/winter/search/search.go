// Package searchcmder provides the search command.
package searchcmder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	commoncmder "github.com/papercomputeco/winter/cmd/winter/common"
	"github.com/papercomputeco/winter/pkg/cliui"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/dotdir"
	"github.com/papercomputeco/winter/pkg/storage"
)

const searchLongDesc string = `Search the turns of a conversation.

Searches the conversation named by --conversation, or the one
"winter chat --resume" would continue. Vector backed storage ranks turns
by similarity to the query; the conversation log matches keywords.

Examples:
  winter search "deployment plan"
  winter search kafka --limit 10
  winter search postgres --conversation 0f9c... --full`

const searchShortDesc string = "Search the turns of a conversation"

const defaultLimit = 5

var errNoConversation = errors.New(`no conversation to search: pass --conversation or run "winter chat" first`)

type searchCommander struct {
	conversation string
	limit        int
	full         bool
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	config.AddFlags(cmd, config.StandardFlags, config.StorageFlagKeys)
	cmd.Flags().StringVarP(&cmder.conversation, "conversation", "c", "", "Conversation ID to search")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", defaultLimit, "Maximum number of turns to show")
	cmd.Flags().BoolVar(&cmder.full, "full", false, "Render full answers as markdown")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, query string) error {
	ctx := cmd.Context()

	if c.limit <= 0 {
		return fmt.Errorf("invalid --limit %d: must be positive", c.limit)
	}

	id := c.conversation
	if id == "" {
		state, err := dotdir.NewManager().LoadActive(commoncmder.ConfigDir(cmd))
		if err != nil {
			return err
		}
		if state == nil {
			return errNoConversation
		}
		id = state.ConversationID
	}

	a, err := commoncmder.OpenApp(ctx, cmd, config.StorageFlagKeys, nil, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Orchestrator.Resume(ctx, id); err != nil {
		return err
	}

	turns := a.Orchestrator.SearchHistory(ctx, query, c.limit)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.DimStyle.Render("Searching for:"), query)
	if len(turns) == 0 {
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("No results found."))
		return nil
	}

	width := cliui.WriterWidth(out)
	if !c.full {
		cliui.WriteTurns(out, turns, a.Config.Conversation.AssistantName, width)
		return nil
	}
	writeFull(out, turns, width)
	return nil
}

// writeFull prints each question followed by its rendered answer.
func writeFull(w io.Writer, turns []storage.Turn, width int) {
	for _, t := range turns {
		fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render(fmt.Sprintf("#%d", t.TurnNumber)), t.UserText)
		rendered, err := cliui.RenderMarkdown(t.AssistantText, width)
		if err != nil {
			rendered = t.AssistantText + "\n"
		}
		fmt.Fprintln(w, rendered)
	}
}
