package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nightsky/clip"
	"nightsky/fault"
	"nightsky/host/upload"
	"nightsky/host/watch"
	"nightsky/protocol"
)

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <clip>",
		Short: "Compress a clip and upload it to the board",
		Long: `Compress a clip and upload it to the board.

Without --device the first compatible board found by discovery is used.
Ctrl-C aborts the upload; the board is still told the stream has ended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			records, err := loadClipRecords(args[0])
			if err != nil {
				return err
			}
			dev, err := a.resolveDevice(ctx)
			if err != nil {
				return err
			}
			return a.upload(ctx, dev, records)
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <clip>",
		Short: "Upload a clip every time it is saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			dev, err := a.resolveDevice(ctx)
			if err != nil {
				return err
			}

			w := watch.New(path, a.cfg.Debounce, a.log, func(ctx context.Context) {
				records, err := loadClipRecords(path)
				if err != nil {
					a.log.Error().Err(err).Msg("reload failed")
					return
				}
				if err := a.upload(ctx, dev, records); err != nil && !errors.Is(err, fault.ErrAborted) {
					a.log.Error().Err(err).Msg("upload failed")
				}
			})
			return w.Run(ctx)
		},
	}
}

func loadClipRecords(path string) ([]protocol.Record, error) {
	c, err := clip.Load(path)
	if err != nil {
		return nil, err
	}
	return protocol.EncodeClip(c), nil
}

// upload runs one session against dev and renders its events while it
// runs. Cancelling ctx aborts the session.
func (a *app) upload(ctx context.Context, dev string, records []protocol.Record) error {
	s := upload.New(dev,
		upload.WithSerialConfig(a.cfg.SerialConfig(dev)),
		upload.WithReplyTimeout(a.cfg.ReplyTimeout),
		upload.WithMaxRecords(a.cfg.MaxRecords),
		upload.WithEventBuffer(eventBuffer(len(records))),
		upload.WithLogger(a.log),
	)
	return runSession(ctx, s, records, a.out, a.log)
}

// eventBuffer leaves room for one progress event per record plus the
// phase events, so the progress line never skips a record.
func eventBuffer(records int) int {
	return records + 8
}

func runSession(ctx context.Context, s *upload.Session, records []protocol.Record, out io.Writer, log zerolog.Logger) error {
	done := s.Start(ctx, records)
	renderEvents(out, s.Events())
	err := <-done
	if s.Aborted() {
		log.Warn().Str("session", s.ID()).Msg("upload aborted")
	}
	return err
}

// renderEvents prints progress until the event channel is closed.
// Streaming progress is redrawn in place.
func renderEvents(out io.Writer, events <-chan upload.Event) {
	streaming := false
	for ev := range events {
		if ev.Phase == upload.PhaseStreaming && !ev.Aborted {
			fmt.Fprintf(out, "\r%s", ev)
			streaming = true
			continue
		}
		if streaming {
			fmt.Fprintln(out)
			streaming = false
		}
		fmt.Fprintln(out, ev)
	}
}
