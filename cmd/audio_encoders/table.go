package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.uber.org/multierr"

	"github.com/edaniels/audioenc"
)

// dump prints every encoder of the negotiator's category with its formats.
func dump(w io.Writer, negotiator *audioenc.Negotiator) (err error) {
	catalog, err := negotiator.Catalog()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, catalog.Release())
	}()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Encoder", "Path", "Format", "Tag", "Bits", "Block"})
	for i := 0; i < catalog.Len(); i++ {
		enc := catalog.At(i)
		formats, err := enc.Formats()
		if err != nil {
			return err
		}
		if formats.Len() == 0 {
			tw.AppendRow(table.Row{i + 1, enc.FriendlyName(), enc.DevicePath(), "none", "", "", ""})
		}
		for _, f := range formats.All() {
			tw.AppendRow(table.Row{
				i + 1,
				enc.FriendlyName(),
				enc.DevicePath(),
				f.String(),
				fmt.Sprintf("0x%04X", f.FormatTag),
				strconv.Itoa(f.BitsPerSample),
				strconv.Itoa(f.BlockAlign),
			})
		}
		tw.AppendSeparator()
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	tw.SetOutputMirror(w)
	tw.Render()
	return nil
}
