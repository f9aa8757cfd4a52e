package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["migrate"])
	require.True(t, names["jobs"])
	require.True(t, names["seed"])
}

func TestMigrateListPrintsEmbeddedVersions(t *testing.T) {
	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"migrate", "list"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "0001_init")
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	c := NewJobsCLI(asynq.RedisClientOpt{Addr: "127.0.0.1:0"})
	defer c.Close()

	_, err := c.Trigger(context.Background(), "inventory:revalue")
	require.ErrorContains(t, err, "unsupported job")
}
