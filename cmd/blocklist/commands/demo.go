package commands

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/outofforest/blocklist"
	"github.com/outofforest/blocklist/alloc"
	"github.com/outofforest/blocklist/persistence"
	"github.com/outofforest/blocklist/pkg/filedev"
)

var (
	demoOut    string
	demoBudget int64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Builds the alphabet list, deletes one letter and prints the result",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().StringVarP(&demoOut, "out", "o", "", "file to save the resulting list to")
	demoCmd.Flags().Int64Var(&demoBudget, "budget", 0, "memory budget of the list in bytes, 0 means unlimited")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	var upstream alloc.Allocator = alloc.Heap{}
	if demoBudget > 0 {
		upstream = alloc.NewBudget(demoBudget)
	}
	reg := prometheus.NewRegistry()
	allocator, err := alloc.NewMetrics(upstream, reg)
	if err != nil {
		return err
	}

	l, err := blocklist.New(1, 1, blocklist.WithAllocator(allocator), blocklist.WithLogger(log))
	if err != nil {
		return err
	}
	defer l.Free()

	out := cmd.OutOrStdout()
	if err := buildAlphabet(l); err != nil {
		return err
	}

	e, err := l.Get(24)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "length: %d, element 24: %c\n", l.Len(), e[0])

	if err := l.Delete(1); err != nil {
		return err
	}
	if err := printList(out, l); err != nil {
		return err
	}
	log.Debug("List built", zap.Any("blocks", l.Blocks()))

	if err := printMetrics(out, reg); err != nil {
		return err
	}

	if demoOut == "" {
		return nil
	}
	return save(demoOut, l)
}

// buildAlphabet appends every other letter and inserts the remaining ones into their final positions.
func buildAlphabet(l *blocklist.List) error {
	for c := byte('A'); c <= 'Z'; c += 2 {
		if err := l.Append([]byte{c}); err != nil {
			return errors.Wrapf(err, "appending %c", c)
		}
	}
	for c := byte('B'); c <= 'Z'; c += 2 {
		if err := l.Insert([]byte{c}, int(c-'A')); err != nil {
			return errors.Wrapf(err, "inserting %c", c)
		}
	}
	return nil
}

func printList(out io.Writer, l *blocklist.List) error {
	if err := l.ForEach(func(index int, element []byte) error {
		_, err := fmt.Fprintf(out, "%d: %s\n", index, element)
		return errors.WithStack(err)
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "length: %d\n", l.Len())
	return nil
}

func printMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.WithStack(err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			}

			name := mf.GetName()
			for _, label := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", label.GetName(), label.GetValue())
			}
			fmt.Fprintf(out, "%s %v\n", name, value)
		}
	}
	return nil
}

func save(path string, l *blocklist.List) error {
	dev, err := filedev.Create(path, persistence.HeaderSize+int64(l.Len())*int64(l.ElementSize()))
	if err != nil {
		return err
	}
	defer dev.Close()

	return persistence.Save(dev, l)
}
