package config

import "errors"

// Config is the top-level configuration struct for souschef.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Scan    ScanConfig    `mapstructure:"scan"`
	MCP     MCPConfig     `mapstructure:"mcp"`
	Output  OutputConfig  `mapstructure:"output"`
}

// ConvertConfig holds playbook generation settings.
type ConvertConfig struct {
	Hosts      string `mapstructure:"hosts"`
	Become     bool   `mapstructure:"become"`
	PlayName   string `mapstructure:"play_name"`
	EmitVars   bool   `mapstructure:"emit_vars"`
	ResolveAll bool   `mapstructure:"resolve_all"`
}

// ScanConfig holds cookbook scanning settings.
type ScanConfig struct {
	MaxFileSize int `mapstructure:"max_file_size"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	MaxInputBytes int `mapstructure:"max_input_bytes"`
}

// OutputConfig holds report rendering settings.
type OutputConfig struct {
	Color  bool   `mapstructure:"color"`
	Format string `mapstructure:"format"`
}

// Report formats accepted for output.format.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
)

// Default values applied when no file or environment override is present.
const (
	DefaultConvertHosts     = "all"
	DefaultConvertBecome    = true
	DefaultConvertPlayName  = "Converted from Chef"
	DefaultConvertEmitVars  = true
	DefaultConvertResolve   = true
	DefaultScanMaxFileSize  = 1 << 20
	DefaultMCPMaxInputBytes = 1 << 20
	DefaultOutputColor      = true
	DefaultOutputFormat     = OutputFormatTable
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidHosts indicates the target host pattern is empty.
	ErrInvalidHosts = errors.New("convert.hosts must be non-empty")
	// ErrInvalidMaxFileSize indicates the scan file size limit is not positive.
	ErrInvalidMaxFileSize = errors.New("scan.max_file_size must be positive")
	// ErrInvalidMaxInputBytes indicates the MCP input limit is not positive.
	ErrInvalidMaxInputBytes = errors.New("mcp.max_input_bytes must be positive")
	// ErrInvalidOutputFormat indicates an unsupported report format.
	ErrInvalidOutputFormat = errors.New("output.format must be one of: table, json")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Convert.Hosts == "" {
		return ErrInvalidHosts
	}

	if c.Scan.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	if c.MCP.MaxInputBytes <= 0 {
		return ErrInvalidMaxInputBytes
	}

	if c.Output.Format != OutputFormatTable && c.Output.Format != OutputFormatJSON {
		return ErrInvalidOutputFormat
	}

	return nil
}
