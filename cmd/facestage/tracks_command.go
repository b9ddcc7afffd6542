package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"facestage/internal/config"
	"facestage/internal/keyframe"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks [file]",
		Short: "Summarize the tracks of a keyframe export",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				entry, ok := cfg.ManifestEntry(config.AssetKeyframes)
				if !ok {
					return fmt.Errorf("no %q entry in the asset manifest", config.AssetKeyframes)
				}
				path = cfg.AssetPath(entry.Src)
			}

			doc, err := keyframe.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Keyframes: %s\n", path)
			fmt.Fprintf(out, "Last frame: %d\n", doc.LastFrame())
			fmt.Fprint(out, renderTable(
				[]string{"Track", "In", "Out", "Frames", "Property", "Stride"},
				trackRows(doc),
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight},
			))
			fmt.Fprintln(out)
			return nil
		},
	}
}

func trackRows(doc *keyframe.Document) [][]string {
	var rows [][]string
	for _, nt := range doc.Tracks() {
		if nt.Track == nil {
			rows = append(rows, []string{nt.Name, "-", "-", "-", "(missing)", "-"})
			continue
		}
		for i, prop := range nt.Track.Properties() {
			stride, _ := nt.Track.PropertyStride(prop)
			row := []string{"", "", "", "", prop, strconv.Itoa(stride)}
			if i == 0 {
				row[0] = nt.Name
				row[1] = strconv.Itoa(nt.Track.InFrame)
				row[2] = strconv.Itoa(nt.Track.OutFrame)
				row[3] = strconv.Itoa(nt.Track.FrameCount())
			}
			rows = append(rows, row)
		}
	}
	return rows
}
