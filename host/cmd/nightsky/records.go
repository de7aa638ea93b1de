package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nightsky/clip"
	"nightsky/protocol"
)

// recordExtension marks files holding raw wire records.
const recordExtension = ".bin"

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <clip>",
		Short: "Write the compressed records of a clip as raw wire bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadClipRecords(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + recordExtension
			}
			if err := os.WriteFile(output, protocol.Marshal(records), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.log.Info().Str("path", output).Int("records", len(records)).Msg("exported")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: clip name with .bin)")
	return cmd
}

func newRecordsCmd(a *app) *cobra.Command {
	var expand bool
	cmd := &cobra.Command{
		Use:   "records <clip|file.bin>",
		Short: "Print the record table of a clip or an exported record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args[0])
			if err != nil {
				return err
			}
			printRecords(a.out, records, expand)
			return nil
		},
	}
	cmd.Flags().BoolVar(&expand, "expand", false, "also print every decoded frame")
	return cmd
}

// readRecords loads records from an exported .bin file, or encodes them
// from a clip document.
func readRecords(path string) ([]protocol.Record, error) {
	if strings.EqualFold(filepath.Ext(path), recordExtension) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return protocol.Unmarshal(data)
	}
	return loadClipRecords(path)
}

func printRecords(out io.Writer, records []protocol.Record, expand bool) {
	for i, r := range records {
		f := clip.FrameFromMask(r.Mask())
		fmt.Fprintf(out, "%4d  %#010x  run %4d  %s\n", i, r.Mask(), r.Run(), f)
	}

	frames := protocol.DecodeFrames(records)
	if expand {
		fmt.Fprintln(out)
		for i, f := range frames {
			fmt.Fprintf(out, "frame %4d  %s\n", i, f)
		}
	}
	fmt.Fprintf(out, "%d frames, %d records, %d bytes\n",
		len(frames), len(records), len(records)*protocol.RecordSize+len(protocol.EndOfStream))
}
