package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		demoOut = ""
		demoBudget = 0
	})

	require.NoError(t, Execute())
	return out.String()
}

func TestDemo(t *testing.T) {
	requireT := require.New(t)

	out := run(t, "demo")
	requireT.Contains(out, "length: 26, element 24: Y\n")
	requireT.Contains(out, "0: A\n1: C\n2: D\n")
	requireT.Contains(out, "24: Z\nlength: 25\n")
	requireT.Contains(out, "blocklist_alloc_inuse_objects ")
}

func TestDemoBudgetExceeded(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"demo", "--budget", "1"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		demoBudget = 0
	})

	require.Error(t, Execute())
}

func TestDemoDump(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "list")
	run(t, "demo", "--out", path)

	out := run(t, "dump", path)
	requireT.True(strings.HasPrefix(out, "0: A\n1: C\n"))
	requireT.True(strings.HasSuffix(out, "24: Z\nlength: 25\n"))
}
