package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/souschef-dev/souschef/pkg/ansible"
	"github.com/souschef-dev/souschef/pkg/chefdsl"
)

// handleParseRecipe processes chef_parse_recipe tool calls.
func (s *Server) handleParseRecipe(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseRecipeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := s.validateSource(input.Source)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(chefdsl.ParseRecipe(input.Source))
}

// handleParseAttributes processes chef_parse_attributes tool calls.
func (s *Server) handleParseAttributes(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseAttributesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := s.validateSource(input.Source)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(chefdsl.ParseAttributes(input.Source, input.Resolve))
}

// handleParseResource processes chef_parse_resource tool calls.
func (s *Server) handleParseResource(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseResourceInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := s.validateSource(input.Source)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(chefdsl.ParseCustomResource(input.Source))
}

// convertOutput is the structured payload of a chef_convert call.
type convertOutput struct {
	Playbook  string   `json:"playbook"`
	TaskCount int      `json:"task_count"`
	TodoCount int      `json:"todo_count"`
	Warnings  []string `json:"warnings"`
}

// handleConvert processes chef_convert tool calls: recipe in, playbook out.
func (s *Server) handleConvert(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ConvertInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := s.validateSource(input.Source)
	if err != nil {
		return errorResult(err)
	}

	recipe := chefdsl.ParseRecipe(input.Source)
	conv := ansible.Tasks(recipe.Resources)

	playName := input.PlayName
	if playName == "" {
		playName = "Converted from Chef"
	}

	playbook := ansible.Playbook(playName, input.Hosts, true, conv.Tasks, nil)

	data, err := ansible.Marshal(playbook)
	if err != nil {
		return errorResult(fmt.Errorf("render playbook: %w", err))
	}

	out := convertOutput{
		Playbook:  string(data),
		TaskCount: len(conv.Tasks),
		TodoCount: conv.TodoCount,
		Warnings:  append(recipe.Warnings, conv.Warnings...),
	}

	return textResult(out.Playbook, out)
}
