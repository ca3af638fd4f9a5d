package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execRoot(t *testing.T, args ...string) string {
	t.Helper()
	cmd := GetRootCmd()
	t.Cleanup(func() { resetFlags(cmd) })

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersionOutput(t *testing.T) {
	out := execRoot(t, "--version")
	assert.Contains(t, out, "edupilot version "+GetVersion())
	assert.Regexp(t, `^0\.\d+\.\d+$`, GetVersion())
}

func TestHelpListsCommands(t *testing.T) {
	out := execRoot(t, "--help")
	assert.Contains(t, out, "EduPage")

	registered := map[string]bool{}
	for _, c := range GetRootCmd().Commands() {
		registered[c.Name()] = true
	}
	for _, name := range []string{"login", "session", "list", "create-task", "grades", "timetable", "history", "keepalive", "config"} {
		assert.True(t, registered[name], "missing command %s", name)
		assert.Contains(t, out, name)
	}
}

func TestPersistentFlagDefaults(t *testing.T) {
	flags := GetRootCmd().PersistentFlags()
	for name, def := range map[string]string{
		"config":    "",
		"log-level": "info",
		"headless":  "false",
	} {
		f := flags.Lookup(name)
		if assert.NotNil(t, f, name) {
			assert.Equal(t, def, f.DefValue, name)
		}
	}
}
