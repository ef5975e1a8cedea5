package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookbook(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	files := map[string]string{
		"metadata.rb": "name 'nginx'\nversion '1.0.0'\n",
		"recipes/default.rb": `package 'nginx' do
  action :install
end

service 'nginx' do
  action [:enable, :start]
end
`,
		"attributes/default.rb": `default['nginx']['port'] = 80
override['nginx']['port'] = 8080
`,
	}

	for rel, body := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	return root
}

func TestRunConvert_CookbookToStdout(t *testing.T) {
	t.Parallel()

	root := writeCookbook(t)

	var out, errOut bytes.Buffer

	err := runConvert(root, ConvertOptions{NoColor: true}, &out, &errOut)
	require.NoError(t, err)

	playbook := out.String()
	assert.Contains(t, playbook, "hosts: all")
	assert.Contains(t, playbook, "ansible.builtin.package")
	assert.Contains(t, playbook, "ansible.builtin.service")
	assert.Contains(t, playbook, "nginx_port: 8080", "override tier must win in vars")

	assert.Contains(t, errOut.String(), "Conversion summary for nginx")
}

func TestRunConvert_OutputDir(t *testing.T) {
	t.Parallel()

	root := writeCookbook(t)
	outDir := filepath.Join(t.TempDir(), "generated")

	var out, errOut bytes.Buffer

	opts := ConvertOptions{OutputDir: outDir, Hosts: "webservers", PlayName: "Web tier", NoColor: true}
	require.NoError(t, runConvert(root, opts, &out, &errOut))

	playbook, err := os.ReadFile(filepath.Join(outDir, "playbook.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(playbook), "hosts: webservers")
	assert.Contains(t, string(playbook), "name: Web tier")

	vars, err := os.ReadFile(filepath.Join(outDir, "vars.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(vars), "nginx_port: 8080")

	assert.Empty(t, out.String(), "file output must not also print the playbook")
}

func TestRunConvert_BecomeFromConfig(t *testing.T) {
	t.Parallel()

	root := writeCookbook(t)

	cfgPath := filepath.Join(t.TempDir(), "souschef.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("convert:\n  become: false\n"), 0o644))

	var out, errOut bytes.Buffer

	opts := ConvertOptions{ConfigPath: cfgPath, NoColor: true}
	require.NoError(t, runConvert(root, opts, &out, &errOut))

	assert.Contains(t, out.String(), "become: false")
}

func TestRunConvert_JSONReport(t *testing.T) {
	t.Parallel()

	root := writeCookbook(t)

	cfgPath := filepath.Join(t.TempDir(), "souschef.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: json\n"), 0o644))

	var out, errOut bytes.Buffer

	opts := ConvertOptions{ConfigPath: cfgPath}
	require.NoError(t, runConvert(root, opts, &out, &errOut))

	var summary map[string]any
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &summary))
	assert.Equal(t, "nginx", summary["cookbook"])
	assert.EqualValues(t, 2, summary["resource_total"])
}

func TestRunConvert_SingleRecipeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "standalone.rb")

	body := `execute 'update' do
  command 'apt-get update'
end
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	var out, errOut bytes.Buffer

	require.NoError(t, runConvert(path, ConvertOptions{NoColor: true}, &out, &errOut))
	assert.Contains(t, out.String(), "ansible.builtin.command")
}

func TestRunConvert_MissingInput(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	err := runConvert(filepath.Join(t.TempDir(), "nope"), ConvertOptions{}, &out, &errOut)
	require.Error(t, err)
}

func TestRunConvert_EmptyCookbook(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))

	var out, errOut bytes.Buffer

	err := runConvert(root, ConvertOptions{}, &out, &errOut)
	require.ErrorIs(t, err, ErrNothingToConvert)
}

func TestNewConvertCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewConvertCommand()
	assert.Equal(t, "convert <cookbook-dir|recipe.rb>", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("output"))
	assert.NotNil(t, cmd.Flags().Lookup("hosts"))
	assert.NotNil(t, cmd.Flags().Lookup("play-name"))
}
