package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/souschef-dev/souschef/internal/config"
	"github.com/souschef-dev/souschef/pkg/chefdsl"
)

// Source kinds accepted by the parse command.
const (
	parseTypeAuto       = "auto"
	parseTypeRecipe     = "recipe"
	parseTypeAttributes = "attributes"
	parseTypeResource   = "resource"
)

// ErrUnknownParseType indicates an unsupported --type value.
var ErrUnknownParseType = errors.New("unknown parse type (expected: recipe, attributes, resource)")

// ParseOptions holds flag values for the parse command.
type ParseOptions struct {
	ConfigPath string
	Type       string
	Resolve    bool
}

// NewParseCommand creates the source inspection command.
func NewParseCommand() *cobra.Command {
	var opts ParseOptions

	cmd := &cobra.Command{
		Use:   "parse <file.rb>",
		Short: "Parse a Chef source file into structured JSON",
		Long: `Parse reads a single Chef source file and prints its structured model:
resource records for recipes, precedence-tagged records for attribute files,
and the declared interface for custom resources.

The source kind is inferred from the file's directory (recipes/, attributes/,
resources/) unless --type is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runParse(args[0], opts, cobraCmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to config file (default: .souschef.yaml)")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", parseTypeAuto, "source kind: recipe, attributes, or resource")
	cmd.Flags().BoolVar(&opts.Resolve, "resolve", false, "resolve attribute precedence into effective values")

	return cmd
}

func runParse(path string, opts ParseOptions, out io.Writer) error {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	source, err := readSource(path, cfg.Scan.MaxFileSize)
	if err != nil {
		return err
	}

	kind := opts.Type
	if kind == parseTypeAuto || kind == "" {
		kind = inferParseType(path)
	}

	var model any

	switch kind {
	case parseTypeRecipe:
		model = chefdsl.ParseRecipe(source)
	case parseTypeAttributes:
		model = chefdsl.ParseAttributes(source, opts.Resolve)
	case parseTypeResource:
		model = chefdsl.ParseCustomResource(source)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParseType, kind)
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = fmt.Fprintf(out, "%s\n", data)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}

// inferParseType maps Chef cookbook directory conventions to a source kind.
func inferParseType(path string) string {
	dir := filepath.Base(filepath.Dir(path))

	switch strings.ToLower(dir) {
	case "attributes":
		return parseTypeAttributes
	case "resources", "providers", "definitions":
		return parseTypeResource
	default:
		return parseTypeRecipe
	}
}
