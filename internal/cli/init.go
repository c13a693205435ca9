package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mark3labs/tgcg/internal/logging"
	"github.com/mark3labs/tgcg/internal/outfile"
)

const defaultConfigName = "tgcg.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample tgcg configuration file",
		Long:  "Scaffold a commented tgcg configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logging.New(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return errors.Wrap(err, "init: resolve output path")
	}

	switch st, err := os.Stat(absPath); {
	case err == nil && st.IsDir():
		return newUsageError(fmt.Sprintf("init: %q is a directory", absPath))
	case err == nil && !cfg.Force:
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	case err == nil:
		log.Infow("replacing existing config", "path", absPath)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}
	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	if err := outfile.Write(absPath, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write %s: %v\nHint: choose a different --out or check directory permissions.", absPath, err))
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# tgcg configuration (YAML)
# All fields are optional. Command-line flags override config values, which
# override the SC_PATH, PL_PATH and ACTION environment variables.

# Path to the Bot API method schema (.yaml, .yml, .json or .toml).
# schema: ./schema.yaml

# What to generate (payloads, mods, requester, forward or openapi).
# target: payloads

# Payloads directory for the payloads target; output file for the others
# (printed to stdout when omitted).
# out: ./src/payloads

# Extra doc patch rules, applied after the built-in table.
# patches: ./patches.yaml

# Directory inside the generator checkout; its HEAD commit goes in banners.
# repo: .

# Leave the commit out of banners.
# noProvenance: false

# Refuse schemas whose Bot API version does not satisfy this constraint.
# requireApi: ">= 6.0"

# OpenAPI output format (json, yaml or swagger2); derived from out when omitted.
# format: json

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite payload files that were not generated by tgcg.
# force: false

# Enable verbose logging.
# verbose: false
`
