package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameParseRecipe     = "chef_parse_recipe"
	ToolNameParseAttributes = "chef_parse_attributes"
	ToolNameParseResource   = "chef_parse_resource"
	ToolNameConvert         = "chef_convert"
)

// Input size limits.
const (
	// MaxSourceInputBytes is the default cap on inline Chef source (1 MB).
	// Servers built with ServerDeps.MaxInputBytes override it.
	MaxSourceInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptySource indicates the source parameter is empty.
	ErrEmptySource = errors.New("source parameter is required and must not be empty")
	// ErrSourceTooLarge indicates the source input exceeds the size limit.
	ErrSourceTooLarge = errors.New("source input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// ParseRecipeInput is the input schema for the chef_parse_recipe tool.
type ParseRecipeInput struct {
	Source string `json:"source" jsonschema:"Chef recipe source (Ruby DSL)"`
}

// ParseAttributesInput is the input schema for the chef_parse_attributes tool.
type ParseAttributesInput struct {
	Source  string `json:"source"            jsonschema:"Chef attributes file source"`
	Resolve bool   `json:"resolve,omitempty" jsonschema:"resolve precedence into effective values"`
}

// ParseResourceInput is the input schema for the chef_parse_resource tool.
type ParseResourceInput struct {
	Source string `json:"source" jsonschema:"Chef custom resource or LWRP source"`
}

// ConvertInput is the input schema for the chef_convert tool.
type ConvertInput struct {
	Source   string `json:"source"              jsonschema:"Chef recipe source to convert"`
	Hosts    string `json:"hosts,omitempty"     jsonschema:"Ansible host pattern (default: all)"`
	PlayName string `json:"play_name,omitempty" jsonschema:"name of the generated play"`
}

// ToolOutput is a generic wrapper for structured tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// textResult builds a CallToolResult with plain text content and structured data.
func textResult(text string, value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}, ToolOutput{Data: value}, nil
}

// validateSource checks common source input constraints against the
// server's configured input cap.
func (s *Server) validateSource(source string) error {
	if source == "" {
		return ErrEmptySource
	}

	if len(source) > s.maxInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrSourceTooLarge, len(source), s.maxInputBytes)
	}

	return nil
}
