package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"serve", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestMigrateCommand_AppliesSchema(t *testing.T) {
	dbPath := t.TempDir() + "/cli.db"
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	root := NewRootCommand()
	root.SetArgs([]string{"migrate"})

	require.NoError(t, root.Execute())
	assert.FileExists(t, dbPath)
}
