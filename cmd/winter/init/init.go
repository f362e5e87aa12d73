// Package initcmder provides the init command for initializing a local
// .winter directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/winter/pkg/cliui"
	"github.com/papercomputeco/winter/pkg/config"
)

const (
	dirName = ".winter"

	remoteTimeout = 10 * time.Second
)

const initLongDesc string = `Initialize a new .winter/ directory in the current working directory.

Creates a local .winter/ directory that takes precedence over the default
~/.winter/ directory for configuration, fact files, the conversation
databases and the active conversation pointer.

A config.toml is written from the named preset (local by default), and
empty fact files are seeded under memory/. Existing fact files are never
touched. Re-running with --preset overwrites config.toml.

Presets:
  local       SQLite conversations with sqlite-vec retrieval
  qdrant      SQLite conversations with a local Qdrant collection
  postgres    PostgreSQL conversations with pgvector retrieval
  <url>       Fetch config.toml from an http(s) URL

Examples:
  winter init
  winter init --preset postgres
  winter init --preset https://example.com/team/winter.toml`

const initShortDesc string = "Initialize a local .winter/ directory"

const userFactsTemplate = `# Facts about you. One per line:
#   vessel <n>: <KEY> = <value>
#
# vessel 1: USER_NAME = Alex
`

const systemFactsTemplate = `# Facts about the assistant. One per line:
#   system <n>: <KEY> = <value>
#
# system 1: AI_NAME = agentWinter
`

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Config preset name or URL ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dirName)

	// Resolve the preset before touching disk so a bad name leaves no trace.
	var cfg *config.Config
	if c.preset != "" {
		cfg, err = resolvePreset(cmd.Context(), out, c.preset)
		if err != nil {
			return err
		}
	}

	existed := false
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		existed = true
	}

	if err := os.MkdirAll(filepath.Join(dir, "memory"), 0o755); err != nil {
		return fmt.Errorf("creating .winter directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	configPath := cfger.GetTarget()
	_, statErr := os.Stat(configPath)
	writeConfig := cfg != nil || errors.Is(statErr, os.ErrNotExist)
	if writeConfig {
		if cfg == nil {
			cfg = config.NewDefaultConfig()
		}
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
	}

	if err := seed(filepath.Join(dir, "memory", "memory.txt"), userFactsTemplate); err != nil {
		return err
	}
	if err := seed(filepath.Join(dir, "memory", "system.txt"), systemFactsTemplate); err != nil {
		return err
	}

	switch {
	case existed && !writeConfig:
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
	case existed:
		fmt.Fprintf(out, "  %s Wrote %s\n", cliui.SuccessMark, cliui.DimStyle.Render(configPath))
	default:
		fmt.Fprintf(out, "  %s Initialized .winter directory: %s\n", cliui.SuccessMark, dir)
	}
	return nil
}

// seed writes content to path unless the file already exists.
func seed(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func resolvePreset(ctx context.Context, w io.Writer, preset string) (*config.Config, error) {
	if !strings.HasPrefix(preset, "http://") && !strings.HasPrefix(preset, "https://") {
		return config.PresetConfig(preset)
	}

	var cfg *config.Config
	err := cliui.Step(w, "Fetching "+preset, func() error {
		var err error
		cfg, err = fetchRemoteConfig(ctx, preset)
		return err
	})
	return cfg, err
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
