package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const sampleRecipe = `package 'nginx' do
  action :install
end

service 'nginx' do
  action [:enable, :start]
  only_if { ::File.exist?('/etc/nginx/nginx.conf') }
end
`

const sampleAttributes = `default['nginx']['port'] = 80
override['nginx']['port'] = 8080
normal['nginx']['user'] = 'www-data'
`

const sampleResource = `resource_name :certificate

property :common_name, String, required: true
property :days, Integer, default: 365

action :create do
  file '/tmp/cert' do
    content 'x'
  end
end
`

// newTestServer builds a server with default limits and no telemetry.
func newTestServer() *Server {
	return NewServer(ServerDeps{})
}

func textContent(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestHandleParseRecipe_Valid(t *testing.T) {
	t.Parallel()

	result, output, err := newTestServer().handleParseRecipe(context.Background(), &mcpsdk.CallToolRequest{}, ParseRecipeInput{Source: sampleRecipe})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text := textContent(t, result)
	assert.Contains(t, text, `"nginx"`)
	assert.Contains(t, text, "service")
	assert.NotNil(t, output.Data)
}

func TestHandleParseRecipe_EmptySource(t *testing.T) {
	t.Parallel()

	result, _, err := newTestServer().handleParseRecipe(context.Background(), &mcpsdk.CallToolRequest{}, ParseRecipeInput{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "source parameter is required")
}

func TestHandleParseRecipe_SourceTooLarge(t *testing.T) {
	t.Parallel()

	input := ParseRecipeInput{Source: strings.Repeat("a", MaxSourceInputBytes+1)}

	result, _, err := newTestServer().handleParseRecipe(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "exceeds maximum size")
}

func TestHandleParseRecipe_ConfiguredLimit(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{MaxInputBytes: 16})
	input := ParseRecipeInput{Source: strings.Repeat("a", 17)}

	result, _, err := srv.handleParseRecipe(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "(max 16)")
}

func TestHandleParseAttributes_Resolve(t *testing.T) {
	t.Parallel()

	input := ParseAttributesInput{Source: sampleAttributes, Resolve: true}

	result, _, err := newTestServer().handleParseAttributes(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := textContent(t, result)
	assert.Contains(t, text, "8080", "override tier must win")
	assert.Contains(t, text, "www-data")
}

func TestHandleParseResource_Valid(t *testing.T) {
	t.Parallel()

	result, _, err := newTestServer().handleParseResource(context.Background(), &mcpsdk.CallToolRequest{}, ParseResourceInput{Source: sampleResource})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := textContent(t, result)
	assert.Contains(t, text, "certificate")
	assert.Contains(t, text, "common_name")
	assert.Contains(t, text, "365")
}

func TestHandleConvert_ProducesPlaybook(t *testing.T) {
	t.Parallel()

	input := ConvertInput{Source: sampleRecipe, Hosts: "webservers", PlayName: "Install nginx"}

	result, output, err := newTestServer().handleConvert(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text := textContent(t, result)
	assert.Contains(t, text, "hosts: webservers")
	assert.Contains(t, text, "Install nginx")
	assert.Contains(t, text, "ansible.builtin.package")
	assert.Contains(t, text, "ansible.builtin.service")

	out, ok := output.Data.(convertOutput)
	require.True(t, ok)
	assert.Equal(t, 2, out.TaskCount)
}

func TestHandleConvert_EmptySource(t *testing.T) {
	t.Parallel()

	result, _, err := newTestServer().handleConvert(context.Background(), &mcpsdk.CallToolRequest{}, ConvertInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
