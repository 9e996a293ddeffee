package commands

import (
	"github.com/spf13/cobra"

	"github.com/outofforest/blocklist"
	"github.com/outofforest/blocklist/persistence"
	"github.com/outofforest/blocklist/pkg/filedev"
)

var dumpCapacity int

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Loads the list saved by demo and prints its elements",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().IntVar(&dumpCapacity, "capacity", 16, "capacity of the first block")
}

func runDump(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	dev, err := filedev.Open(args[0])
	if err != nil {
		return err
	}
	defer dev.Close()

	l, err := persistence.Load(dev, dumpCapacity, blocklist.WithLogger(log))
	if err != nil {
		return err
	}
	defer l.Free()

	return printList(cmd.OutOrStdout(), l)
}
