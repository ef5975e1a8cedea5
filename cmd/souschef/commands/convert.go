// Package commands implements CLI command handlers for souschef.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/souschef-dev/souschef/internal/config"
	"github.com/souschef-dev/souschef/pkg/ansible"
	"github.com/souschef-dev/souschef/pkg/chefdsl"
	"github.com/souschef-dev/souschef/pkg/cookbook"
	"github.com/souschef-dev/souschef/pkg/report"
)

// playbookFileName is the output file for the generated play.
const playbookFileName = "playbook.yml"

// varsFileName is the output file for resolved cookbook attributes.
const varsFileName = "vars.yml"

// outputFileMode is the permission mode for generated files.
const outputFileMode = 0o644

// ErrNothingToConvert indicates no recipes were found at the input path.
var ErrNothingToConvert = errors.New("no recipes found to convert")

// ConvertOptions holds flag values for the convert command.
type ConvertOptions struct {
	ConfigPath string
	Hosts      string
	PlayName   string
	OutputDir  string
	NoColor    bool
}

// NewConvertCommand creates the cookbook conversion command.
func NewConvertCommand() *cobra.Command {
	var opts ConvertOptions

	cmd := &cobra.Command{
		Use:   "convert <cookbook-dir|recipe.rb>",
		Short: "Convert a Chef cookbook or recipe into an Ansible playbook",
		Long: `Convert parses Chef recipes and attribute files, translates the resources
into Ansible tasks, and emits a playbook plus a vars file with the cookbook's
effective attributes. Constructs without a clean Ansible equivalent are kept
as commented TODO tasks for manual follow-up.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runConvert(args[0], opts, cobraCmd.OutOrStdout(), cobraCmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to config file (default: .souschef.yaml)")
	cmd.Flags().StringVar(&opts.Hosts, "hosts", "", "Ansible host pattern for the generated play")
	cmd.Flags().StringVar(&opts.PlayName, "play-name", "", "name of the generated play")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "directory for generated files (default: stdout)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable colored report output")

	return cmd
}

// runConvert executes the conversion: scan, parse, translate, emit, report.
func runConvert(path string, opts ConvertOptions, out, errOut io.Writer) error {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Hosts == "" {
		opts.Hosts = cfg.Convert.Hosts
	}

	if opts.PlayName == "" {
		opts.PlayName = cfg.Convert.PlayName
	}

	inv, recipes, attrs, err := parseInput(path, cfg)
	if err != nil {
		return err
	}

	if len(recipes) == 0 {
		return fmt.Errorf("%w: %s", ErrNothingToConvert, path)
	}

	var resources []chefdsl.ResourceRecord
	for _, recipe := range recipes {
		resources = append(resources, recipe.Resources...)
	}

	conv := ansible.Tasks(resources)
	playbook := ansible.Playbook(opts.PlayName, opts.Hosts, cfg.Convert.Become, conv.Tasks, nil)

	playbookData, err := ansible.Marshal(playbook)
	if err != nil {
		return err
	}

	varsData, err := marshalVars(attrs, cfg)
	if err != nil {
		return err
	}

	err = writeOutputs(opts.OutputDir, playbookData, varsData, out)
	if err != nil {
		return err
	}

	summary := report.Build(inv, recipes, attrs, []*ansible.ConvertResult{conv})

	if cfg.Output.Format == config.OutputFormatJSON {
		return summary.RenderJSON(errOut)
	}

	summary.Render(errOut, cfg.Output.Color && !opts.NoColor)

	return nil
}

// parseInput handles both whole-cookbook directories and single recipe files.
func parseInput(path string, cfg *config.Config) (*cookbook.Inventory, []*chefdsl.RecipeResult, []*chefdsl.AttributeResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stat input: %w", err)
	}

	if !info.IsDir() {
		recipe, readErr := parseRecipeFile(path, cfg.Scan.MaxFileSize)
		if readErr != nil {
			return nil, nil, nil, readErr
		}

		return nil, []*chefdsl.RecipeResult{recipe}, nil, nil
	}

	inv, err := cookbook.Scan(path)
	if err != nil {
		return nil, nil, nil, err
	}

	var recipes []*chefdsl.RecipeResult

	for _, file := range inv.ByKind(cookbook.KindRecipe) {
		recipe, parseErr := parseRecipeFile(file.Path, cfg.Scan.MaxFileSize)
		if parseErr != nil {
			return nil, nil, nil, parseErr
		}

		recipes = append(recipes, recipe)
	}

	var attrs []*chefdsl.AttributeResult

	for _, file := range inv.ByKind(cookbook.KindAttributes) {
		source, readErr := readSource(file.Path, cfg.Scan.MaxFileSize)
		if readErr != nil {
			return nil, nil, nil, readErr
		}

		attrs = append(attrs, chefdsl.ParseAttributes(source, cfg.Convert.ResolveAll))
	}

	return inv, recipes, attrs, nil
}

func parseRecipeFile(path string, maxSize int) (*chefdsl.RecipeResult, error) {
	source, err := readSource(path, maxSize)
	if err != nil {
		return nil, err
	}

	return chefdsl.ParseRecipe(source), nil
}

func readSource(path string, maxSize int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	if maxSize > 0 && len(data) > maxSize {
		return "", fmt.Errorf("read %s: file exceeds %d byte limit", path, maxSize)
	}

	return string(data), nil
}

// marshalVars flattens all attribute files into one resolved vars document.
// Returns nil when there are no attributes or vars emission is disabled.
func marshalVars(attrs []*chefdsl.AttributeResult, cfg *config.Config) ([]byte, error) {
	if !cfg.Convert.EmitVars || len(attrs) == 0 {
		return nil, nil
	}

	var records []chefdsl.AttributeRecord
	for _, attr := range attrs {
		records = append(records, attr.Records...)
	}

	if len(records) == 0 {
		return nil, nil
	}

	resolved := chefdsl.ResolveAttributes(records)

	data, err := ansible.Marshal(ansible.VarsFile(resolved))
	if err != nil {
		return nil, err
	}

	return data, nil
}

func writeOutputs(outputDir string, playbookData, varsData []byte, out io.Writer) error {
	if outputDir == "" {
		_, err := out.Write(playbookData)
		if err != nil {
			return fmt.Errorf("write playbook: %w", err)
		}

		if len(varsData) > 0 {
			_, err = fmt.Fprintf(out, "---\n# %s\n%s", varsFileName, varsData)
			if err != nil {
				return fmt.Errorf("write vars: %w", err)
			}
		}

		return nil
	}

	err := os.MkdirAll(outputDir, 0o755)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	err = os.WriteFile(filepath.Join(outputDir, playbookFileName), playbookData, outputFileMode)
	if err != nil {
		return fmt.Errorf("write %s: %w", playbookFileName, err)
	}

	if len(varsData) > 0 {
		err = os.WriteFile(filepath.Join(outputDir, varsFileName), varsData, outputFileMode)
		if err != nil {
			return fmt.Errorf("write %s: %w", varsFileName, err)
		}
	}

	return nil
}
