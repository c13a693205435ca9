package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/tgcg/internal/emitter/modlist"
	"github.com/mark3labs/tgcg/internal/emitter/openapi"
	"github.com/mark3labs/tgcg/internal/emitter/payload"
	"github.com/mark3labs/tgcg/internal/emitter/requester"
	"github.com/mark3labs/tgcg/internal/logging"
	"github.com/mark3labs/tgcg/internal/outfile"
	"github.com/mark3labs/tgcg/internal/patch"
	"github.com/mark3labs/tgcg/internal/provenance"
	"github.com/mark3labs/tgcg/internal/render"
	"github.com/mark3labs/tgcg/internal/schema"
)

// Generation targets.
const (
	TargetPayloads  = "payloads"
	TargetMods      = "mods"
	TargetRequester = "requester"
	TargetForward   = "forward"
	TargetOpenAPI   = "openapi"
)

// actionTargets maps the legacy ACTION variable to targets.
var actionTargets = map[string]string{
	"0": TargetPayloads,
	"1": TargetMods,
	"2": TargetRequester,
	"3": TargetForward,
}

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, environment, config file values, and CLI overrides.
type GenerateConfig struct {
	Schema       string
	Target       string
	Out          string
	Patches      string
	Repo         string
	NoProvenance bool
	RequireAPI   string
	Format       string
	ConfigPath   string
	DryRun       bool
	Force        bool
	Verbose      bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Target: TargetPayloads, Repo: "."}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Bot API client sources from a method schema",
		Long: "Generate payload files, the payload module listing, the Requester trait surface, " +
			"the requester_forward! macro, or an OpenAPI description from a Bot API method schema. " +
			"Options can be provided via flags, environment, config files, or defaults.",
		Example: strings.TrimSpace(`  tgcg generate --schema schema.yaml --out ./src/payloads
  tgcg generate --schema schema.yaml --target requester --out requester.rs
  SC_PATH=schema.yaml ACTION=3 tgcg generate
  tgcg --config tgcg.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("schema", "", "Path to the method schema (.yaml, .yml, .json or .toml)")
	flags.String("target", "", "What to generate (payloads|mods|requester|forward|openapi); defaults to payloads")
	flags.String("out", "", "Payloads directory, or output file for other targets (stdout when omitted)")
	flags.String("patches", "", "YAML file with doc patch rules applied after the built-in ones")
	flags.String("repo", "", "Directory inside the generator's git checkout, for the banner commit")
	flags.Bool("no-provenance", false, "Leave the commit out of generated banners")
	flags.String("require-api", "", "Semantic version constraint the schema's Bot API version must satisfy")
	flags.String("format", "", "OpenAPI output format (json|yaml|swagger2); derived from --out when omitted")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite hand-written payload files")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	if err := applyGenerateEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyGenerateEnv reads the variables understood by earlier versions of the
// generator: SC_PATH (schema), PL_PATH (payloads directory) and ACTION.
func applyGenerateEnv(cfg *GenerateConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup("SC_PATH"); ok && strings.TrimSpace(v) != "" {
		cfg.Schema = strings.TrimSpace(v)
	}
	if v, ok := lookup("ACTION"); ok && strings.TrimSpace(v) != "" {
		target, known := actionTargets[strings.TrimSpace(v)]
		if !known {
			return newUsageError(fmt.Sprintf("generate: unknown ACTION %q (allowed: 0, 1, 2, 3)", v))
		}
		cfg.Target = target
	}
	if v, ok := lookup("PL_PATH"); ok && strings.TrimSpace(v) != "" && cfg.Target == TargetPayloads {
		cfg.Out = strings.TrimSpace(v)
	}
	return nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strFlags := []struct {
		name string
		dst  *string
	}{
		{"schema", &cfg.Schema},
		{"target", &cfg.Target},
		{"out", &cfg.Out},
		{"patches", &cfg.Patches},
		{"repo", &cfg.Repo},
		{"require-api", &cfg.RequireAPI},
		{"format", &cfg.Format},
	}
	for _, f := range strFlags {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(value)
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"no-provenance", &cfg.NoProvenance},
		{"dry-run", &cfg.DryRun},
		{"force", &cfg.Force},
		{"verbose", &cfg.Verbose},
	}
	for _, f := range boolFlags {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetBool(f.name)
		if err != nil {
			return err
		}
		*f.dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Schema = strings.TrimSpace(c.Schema)
	c.Target = strings.ToLower(strings.TrimSpace(c.Target))
	c.Out = strings.TrimSpace(c.Out)
	c.Patches = strings.TrimSpace(c.Patches)
	c.Repo = strings.TrimSpace(c.Repo)
	c.RequireAPI = strings.TrimSpace(c.RequireAPI)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Target == "" {
		c.Target = TargetPayloads
	}
	if c.Repo == "" {
		c.Repo = "."
	}
}

func (c *GenerateConfig) validate() error {
	if c.Schema == "" {
		return newUsageError("generate: --schema is required (set via flag, SC_PATH, or config file)")
	}

	switch c.Target {
	case TargetPayloads:
		if c.Out == "" {
			return newUsageError("generate: --out is required for payloads (set via flag, PL_PATH, or config file)")
		}
	case TargetMods, TargetRequester, TargetForward:
	case TargetOpenAPI:
		if c.Format == "" {
			c.Format = string(openapi.FormatJSON)
			if ext := strings.ToLower(filepath.Ext(c.Out)); ext == ".yaml" || ext == ".yml" {
				c.Format = string(openapi.FormatYAML)
			}
		}
		if _, err := openapi.ParseFormat(c.Format); err != nil {
			return newUsageError("generate: " + err.Error())
		}
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --target %q (allowed: payloads, mods, requester, forward, openapi)", c.Target))
	}
	if c.Format != "" && c.Target != TargetOpenAPI {
		return newUsageError("generate: --format only applies to --target openapi")
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	log := logging.New(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	// 1) Load, escape and validate the schema
	s, err := schema.Load(ctx, cfg.Schema)
	if err != nil {
		return schemaUsageError(err)
	}
	if err := schema.CheckAPIVersion(s, cfg.RequireAPI); err != nil {
		return schemaUsageError(err)
	}
	log.Infow("schema loaded", "path", cfg.Schema, "api", s.APIVersion.Ver, "methods", len(s.Methods))

	// 2) Patch docs: built-in rules first, then the rule file
	rules := patch.DefaultRules()
	if cfg.Patches != "" {
		extra, err := patch.LoadRules(cfg.Patches)
		if err != nil {
			return newUsageError(err.Error())
		}
		rules = append(rules, extra...)
	}
	for i, line := range patch.Summary(rules) {
		log.Infow("patch rule", "index", i, "rule", line)
	}
	if err := patch.Apply(s, rules); err != nil {
		return err
	}

	// 3) Banner provenance
	stamp := render.Stamp{APIVersion: s.APIVersion.Ver}
	if !cfg.NoProvenance {
		stamp.Commit = describeRepo(cfg.Repo, log)
	}

	// 4) Emit the chosen target
	if cfg.Target == TargetPayloads {
		return emitPayloads(ctx, s, cfg, stamp, log)
	}
	content, err := renderTarget(s, cfg, stamp)
	if err != nil {
		return err
	}
	return writeSingle(cfg, content)
}

func describeRepo(dir string, log *zap.SugaredLogger) string {
	desc, err := provenance.Describe(dir)
	if err != nil {
		log.Warnw("generator commit unknown, banner left without it", "dir", dir, "error", err)
		return ""
	}
	return desc
}

func renderTarget(s *schema.Schema, cfg *GenerateConfig, stamp render.Stamp) ([]byte, error) {
	switch cfg.Target {
	case TargetMods:
		return []byte(modlist.Render(s, stamp)), nil
	case TargetRequester:
		return requester.Trait(s, render.Banner(render.BannerBlock, stamp))
	case TargetForward:
		return requester.ForwardMacro(s, render.Banner(render.BannerMacro, stamp))
	case TargetOpenAPI:
		format, err := openapi.ParseFormat(cfg.Format)
		if err != nil {
			return nil, newUsageError("generate: " + err.Error())
		}
		return openapi.Marshal(openapi.Build(s), format)
	}
	return nil, newUsageError(fmt.Sprintf("generate: unsupported --target %q", cfg.Target))
}

func emitPayloads(ctx context.Context, s *schema.Schema, cfg *GenerateConfig, stamp render.Stamp, log *zap.SugaredLogger) error {
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	res, err := payload.Emit(ctx, s, payload.Options{
		OutDir: cfg.Out,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
		Stamp:  stamp,
		Logger: log,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(absOut, len(res.Planned), paths)
	}
	return nil
}

// writeSingle prints content, or writes it to --out. Single-file targets are
// named explicitly and are always replaced.
func writeSingle(cfg *GenerateConfig, content []byte) error {
	if cfg.Out == "" {
		_, err := os.Stdout.Write(content)
		return err
	}
	absPath, err := filepath.Abs(cfg.Out)
	if err != nil {
		return errors.Wrap(err, "resolve output path")
	}
	if cfg.DryRun {
		printPlan(filepath.Dir(absPath), 1, []string{filepath.Base(absPath) + " (" + strconv.Itoa(len(content)) + " bytes)"})
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return wrapOutputError(errors.Wrap(err, "mkdir"), absPath)
	}
	if err := outfile.Write(absPath, content, 0o644); err != nil {
		return wrapOutputError(err, absPath)
	}
	return nil
}

// schemaUsageError maps structured schema errors into friendly messages.
func schemaUsageError(err error) error {
	var se *schema.SchemaError
	if !errors.As(err, &se) {
		return err
	}
	msg := se.Message
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.Path != "" {
		msg = fmt.Sprintf("%s\nPath: %s", msg, se.Path)
	}
	return newUsageError(msg)
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, out string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") ||
		strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") ||
		strings.Contains(lower, "not generated") || strings.Contains(lower, "not a directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", out, msg))
	}
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	strFields := map[string]*string{
		"schema":     &cfg.Schema,
		"target":     &cfg.Target,
		"out":        &cfg.Out,
		"patches":    &cfg.Patches,
		"repo":       &cfg.Repo,
		"requireapi": &cfg.RequireAPI,
		"format":     &cfg.Format,
	}
	boolFields := map[string]*bool{
		"noprovenance": &cfg.NoProvenance,
		"dryrun":       &cfg.DryRun,
		"force":        &cfg.Force,
		"verbose":      &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strFields[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := boolFields[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case int:
		return strconv.Itoa(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
