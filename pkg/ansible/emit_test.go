package ansible

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souschef-dev/souschef/pkg/chefdsl"
)

func renderTasks(t *testing.T, src string) (string, *ConvertResult) {
	t.Helper()

	recipe := chefdsl.ParseRecipe(src)
	result := Tasks(recipe.Resources)

	out, err := Marshal(Playbook("converted", "", true, result.Tasks, nil))
	require.NoError(t, err)

	return string(out), result
}

func TestTasks_PackageInstall(t *testing.T) {
	t.Parallel()

	out, result := renderTasks(t, "package 'nginx' do\n  action :install\nend\n")
	assert.Empty(t, result.Warnings)
	assert.Contains(t, out, "ansible.builtin.package:")
	assert.Contains(t, out, "name: nginx")
	assert.Contains(t, out, "state: present")
}

func TestTasks_ServiceEnableStart(t *testing.T) {
	t.Parallel()

	out, _ := renderTasks(t, "service 'nginx' do\n  action [:enable, :start]\nend\n")
	assert.Contains(t, out, "ansible.builtin.service:")
	assert.Contains(t, out, "enabled: true")
	assert.Contains(t, out, "state: started")
}

func TestTasks_TemplateParamRenames(t *testing.T) {
	t.Parallel()

	src := `template '/etc/nginx/nginx.conf' do
  source 'nginx.conf.erb'
  owner 'root'
  mode '0644'
end
`

	out, _ := renderTasks(t, src)
	assert.Contains(t, out, "ansible.builtin.template:")
	assert.Contains(t, out, "dest: /etc/nginx/nginx.conf")
	assert.Contains(t, out, "src: nginx.conf.erb")
	assert.Contains(t, out, "mode: \"0644\"")
}

func TestTasks_ExecuteUsesNameAsCommand(t *testing.T) {
	t.Parallel()

	out, _ := renderTasks(t, "execute 'apt-get update' do\nend\n")
	assert.Contains(t, out, "ansible.builtin.command:")
	assert.Contains(t, out, "cmd: apt-get update")
}

func TestTasks_GuardsBecomeWhenList(t *testing.T) {
	t.Parallel()

	src := `package 'nginx' do
  only_if { File.exist?('/etc/apt/sources.list') }
  not_if { File.exist?('/tmp/skip') }
end
`

	out, _ := renderTasks(t, src)
	assert.Contains(t, out, "when:")
	assert.Contains(t, out, "'/etc/apt/sources.list' is file")
	assert.Contains(t, out, "not ('/tmp/skip' is file)")
}

func TestTasks_UnknownResourceBecomesTodo(t *testing.T) {
	t.Parallel()

	out, result := renderTasks(t, "chocolatey_package 'vim' do\nend\n")
	assert.Equal(t, 1, result.TodoCount)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no ansible module mapping")
	assert.Contains(t, out, "TODO(chef-migrate)")
	assert.Contains(t, out, "ansible.builtin.debug:")
}

func TestTasks_UnmappedPropertyPassesThrough(t *testing.T) {
	t.Parallel()

	src := `package 'nginx' do
  timeout 300
end
`

	out, result := renderTasks(t, src)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no mapping")
	assert.Contains(t, out, "timeout: 300")
}

func TestTasks_NotificationsWarn(t *testing.T) {
	t.Parallel()

	src := `template '/etc/nginx/nginx.conf' do
  source 'nginx.conf.erb'
  notifies :reload, 'service[nginx]', :delayed
end
`

	_, result := renderTasks(t, src)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "handler")
	assert.Equal(t, 1, result.TodoCount)
}

func TestTasks_SourceOrderPreserved(t *testing.T) {
	t.Parallel()

	src := `package 'unzip' do
end
service 'app' do
end
`

	out, _ := renderTasks(t, src)

	unzipPos := strings.Index(out, "unzip")
	servicePos := strings.Index(out, "ansible.builtin.service")
	require.GreaterOrEqual(t, unzipPos, 0)
	require.GreaterOrEqual(t, servicePos, 0)
	assert.Less(t, unzipPos, servicePos)
}

func TestVarsFile_SortedAndConflictAnnotated(t *testing.T) {
	t.Parallel()

	attrs := chefdsl.ParseAttributes(`default['nginx']['port'] = 80
override['nginx']['port'] = 8080
default['app']['name'] = 'web'
`, true)

	vars := VarsFile(attrs.Resolved)
	out, err := Marshal(vars)
	require.NoError(t, err)

	appPos := strings.Index(string(out), "app_name")
	portPos := strings.Index(string(out), "nginx_port")
	require.GreaterOrEqual(t, appPos, 0)
	require.GreaterOrEqual(t, portPos, 0)
	assert.Less(t, appPos, portPos, "keys sorted by path")

	assert.Contains(t, string(out), "nginx_port: 8080")
	assert.Contains(t, string(out), "conflict: override tier won")
}

func TestPlaybook_Shape(t *testing.T) {
	t.Parallel()

	recipe := chefdsl.ParseRecipe("package 'git' do\nend\n")
	result := Tasks(recipe.Resources)

	out, err := Marshal(Playbook("migrated from cookbook", "web", true, result.Tasks, nil))
	require.NoError(t, err)

	assert.Contains(t, string(out), "hosts: web")
	assert.Contains(t, string(out), "become: true")
	assert.Contains(t, string(out), "tasks:")
}

func TestPlaybook_BecomeDisabled(t *testing.T) {
	t.Parallel()

	recipe := chefdsl.ParseRecipe("package 'git' do\nend\n")
	result := Tasks(recipe.Resources)

	out, err := Marshal(Playbook("unprivileged play", "web", false, result.Tasks, nil))
	require.NoError(t, err)

	assert.Contains(t, string(out), "become: false")
}
