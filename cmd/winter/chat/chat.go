// Package chatcmder provides the interactive chat command.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	commoncmder "github.com/papercomputeco/winter/cmd/winter/common"
	"github.com/papercomputeco/winter/pkg/app"
	"github.com/papercomputeco/winter/pkg/chat"
	"github.com/papercomputeco/winter/pkg/cliui"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/dotdir"
)

const chatLongDesc string = `Start an interactive chat session.

Questions about stored facts (your name, location, the assistant's name)
are answered directly from memory/memory.txt and memory/system.txt.
Everything else is answered by the configured model, with recent and
related turns of the conversation retrieved as context.

Every line you enter is a message, except these commands:
  history           Show the latest turns of this conversation
  search <query>    Find related turns in this conversation
  conversations     List stored conversations
  load <id>         Switch to a stored conversation
  new               Start a new conversation
  help              Show this list
  quit, exit, q     Leave the session

Press Ctrl-C while an answer streams to cancel it. Cancelled answers are
not saved. Press Ctrl-C at the prompt to leave.

Examples:
  winter chat
  winter chat --resume
  winter chat --model llama3.2 --storage jsonl`

const chatShortDesc string = "Start an interactive chat session"

const (
	historyLimit = 10
	searchLimit  = 5
)

var chatFlagKeys = slices.Concat(config.StorageFlagKeys, []string{
	config.FlagLLMTarget,
	config.FlagLLMModel,
	config.FlagRetrievalLimit,
	config.FlagProject,
})

type chatCommander struct {
	resume    bool
	ephemeral bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddFlags(cmd, config.StandardFlags, chatFlagKeys)
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Continue the last active conversation")
	cmd.Flags().BoolVar(&cmder.ephemeral, "ephemeral", false, "Keep this session in memory only")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := commoncmder.OpenApp(ctx, cmd, chatFlagKeys, nil, func(cfg *config.Config) {
		if c.ephemeral {
			cfg.Storage.Provider = "memory"
		}
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s closing: %v\n", cliui.FailMark, err)
		}
	}()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	s := &session{
		app:        a,
		orch:       a.Orchestrator,
		out:        out,
		width:      cliui.WriterWidth(out),
		assistant:  a.Config.Conversation.AssistantName,
		configDir:  commoncmder.ConfigDir(cmd),
		ddm:        dotdir.NewManager(),
		interrupts: interrupts,
		now:        time.Now,
		ephemeral:  c.ephemeral,
	}

	s.header()
	if c.resume && !s.ephemeral {
		s.resume(ctx)
	}

	return s.loop(ctx, cmd.InOrStdin())
}

// session is one interactive chat run.
type session struct {
	app        *app.App
	orch       *chat.Orchestrator
	out        io.Writer
	width      int
	assistant  string
	configDir  string
	ddm        *dotdir.Manager
	interrupts <-chan os.Signal
	now        func() time.Time
	ephemeral  bool

	// savedID is the conversation last written to active.json.
	savedID string
}

func (s *session) header() {
	fmt.Fprintf(s.out, "\n  %s  %s\n",
		cliui.HeaderStyle.Render("winter"),
		cliui.DimStyle.Render(fmt.Sprintf("%s storage, %d facts", s.orch.Backend(), s.app.Facts.Len())),
	)
	fmt.Fprintf(s.out, "  %s\n\n", cliui.DimStyle.Render("Commands: history | search <query> | conversations | load <id> | new | quit"))
}

func (s *session) resume(ctx context.Context) {
	state, err := s.ddm.LoadActive(s.configDir)
	if err != nil {
		fmt.Fprintf(s.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
		return
	}
	if state == nil {
		fmt.Fprintf(s.out, "  %s\n\n", cliui.DimStyle.Render("No conversation to resume. Starting a new one."))
		return
	}

	if err := s.orch.Resume(ctx, state.ConversationID); err != nil {
		fmt.Fprintf(s.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
		return
	}
	s.savedID = state.ConversationID

	title := state.Title
	if title == "" {
		title = state.ConversationID
	}
	fmt.Fprintf(s.out, "  %s Resumed %s %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(title), s.turnCount())
}

func (s *session) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(s.out, cliui.KeyStyle.Render("you: "))

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case <-s.interrupts:
			fmt.Fprint(s.out, "\n\n  Goodbye!\n\n")
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}

		if quit := s.handle(ctx, strings.TrimSpace(line)); quit {
			fmt.Fprint(s.out, "\n  Goodbye!\n\n")
			return nil
		}
	}
}

// handle runs one input line and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "":
		return false

	case "quit", "exit", "q":
		if arg == "" {
			return true
		}

	case "help":
		if arg == "" {
			s.header()
			return false
		}

	case "history":
		if arg == "" {
			fmt.Fprintln(s.out)
			cliui.WriteTurns(s.out, s.orch.RecentTurns(ctx, historyLimit), s.assistant, s.width)
			return false
		}

	case "search":
		if arg != "" {
			fmt.Fprintf(s.out, "\n  %s %s\n\n", cliui.DimStyle.Render("Searching for:"), arg)
			turns := s.orch.SearchHistory(ctx, arg, searchLimit)
			if len(turns) == 0 {
				fmt.Fprintf(s.out, "  %s\n\n", cliui.DimStyle.Render("No results found."))
				return false
			}
			cliui.WriteTurns(s.out, turns, s.assistant, s.width)
			return false
		}

	case "conversations":
		if arg == "" {
			fmt.Fprintln(s.out)
			cliui.WriteConversations(s.out, s.orch.Conversations(ctx), s.orch.ActiveConversation(), s.now())
			fmt.Fprintln(s.out)
			return false
		}

	case "load":
		if arg != "" {
			if err := s.orch.Resume(ctx, arg); err != nil {
				fmt.Fprintf(s.out, "\n  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
				return false
			}
			s.remember(ctx)
			fmt.Fprintf(s.out, "\n  %s Loaded %s %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(arg), s.turnCount())
			return false
		}

	case "new":
		if arg == "" {
			s.orch.NewConversation()
			s.forget()
			s.savedID = ""
			fmt.Fprintf(s.out, "\n  %s Started a new conversation.\n\n", cliui.SuccessMark)
			return false
		}
	}

	s.respond(ctx, line)
	return false
}

// respond streams the answer to line. An interrupt while streaming
// cancels only this answer.
func (s *session) respond(ctx context.Context, line string) {
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.interrupts:
			cancel()
		case <-done:
		}
	}()

	label := cliui.KeyStyle.Render(s.assistant + ": ")
	streaming := false
	persisted := false

	fmt.Fprintln(s.out)
	for f := range s.orch.Chat(genCtx, line) {
		switch f.Kind {
		case chat.KindDirect:
			fmt.Fprintf(s.out, "%s%s\n", label, f.Text)
			persisted = true
		case chat.KindText:
			if !streaming {
				fmt.Fprint(s.out, label)
				streaming = true
			}
			fmt.Fprint(s.out, f.Text)
		case chat.KindTiming:
			fmt.Fprintf(s.out, "\n%s\n", cliui.DimStyle.Render(f.Text))
			persisted = true
		case chat.KindError:
			if streaming {
				fmt.Fprintln(s.out)
			}
			fmt.Fprintf(s.out, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(f.Text))
		}
	}

	if genCtx.Err() != nil && ctx.Err() == nil {
		if streaming {
			fmt.Fprintln(s.out)
		}
		fmt.Fprintf(s.out, "%s\n", cliui.DimStyle.Render("[cancelled]"))
	}
	fmt.Fprintln(s.out)

	if persisted {
		s.remember(ctx)
	}
}

// turnCount renders how many turns the active conversation already has.
func (s *session) turnCount() string {
	return cliui.DimStyle.Render(fmt.Sprintf("(%d turns)", s.app.Store.NextTurn()))
}

func (s *session) forget() {
	if s.ephemeral {
		return
	}
	if err := s.ddm.ClearActive(s.configDir); err != nil {
		fmt.Fprintf(s.out, "  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
	}
}

// remember points active.json at the active conversation when it changed.
// Ephemeral sessions leave the pointer alone.
func (s *session) remember(ctx context.Context) {
	id := s.orch.ActiveConversation()
	if s.ephemeral || id == "" || id == s.savedID {
		return
	}

	state := &dotdir.ActiveState{ConversationID: id, UpdatedAt: s.now().UTC()}
	if recent := s.orch.RecentTurns(ctx, 1); len(recent) > 0 {
		state.Title = recent[0].Title
	}

	if err := s.ddm.SaveActive(state, s.configDir); err != nil {
		fmt.Fprintf(s.out, "  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
		return
	}
	s.savedID = id
}
