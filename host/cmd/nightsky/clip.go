package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nightsky/clip"
)

func newClipCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Create, show and edit clip files",
	}
	cmd.AddCommand(newClipNewCmd(a), newClipShowCmd(a), newClipEditCmd(a))
	return cmd
}

func newClipNewCmd(a *app) *cobra.Command {
	var (
		frames int
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create a clip of blank frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames < 0 {
				return fmt.Errorf("frames cannot be negative")
			}
			path := clip.EnsureExtension(args[0])
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force)", path)
				}
			}
			if err := clip.NewWithFrames(frames).Save(path); err != nil {
				return err
			}
			a.log.Info().Str("path", path).Int("frames", frames).Msg("clip created")
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 1, "number of blank frames")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newClipShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the frames of a clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clip.Load(args[0])
			if err != nil {
				return err
			}
			printClip(a.out, c)
			return nil
		},
	}
}

func newClipEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file> [command]...",
		Short: "Edit a clip interactively or with a list of commands",
		Long: `Edit a clip.

With only a file argument an interactive prompt reads commands from stdin
(type 'help' for the list). Further arguments are run as commands in order
and the clip is saved afterwards, for example:

  nightsky clip edit show.nsc "goto 2" "toggle 0 5 9" dup next "off 5"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clip.Load(args[0])
			if err != nil {
				return err
			}
			ed := newEditor(c, a.out)

			if len(args) == 1 {
				return ed.run(cmd.InOrStdin(), true)
			}

			if err := ed.run(strings.NewReader(strings.Join(args[1:], "\n")), false); err != nil {
				return err
			}
			if !ed.dirty {
				return nil
			}
			if err := c.Save(""); err != nil {
				return err
			}
			a.log.Info().Str("path", c.Path()).Int("frames", c.Len()).Msg("clip saved")
			return nil
		},
	}
}
