package main

import (
	"encoding/json"
	"fmt"

	"github.com/carbocation/gelqc/gel"
	"github.com/carbocation/pfx"
	"github.com/spf13/cobra"
)

var (
	laneIndex   int
	showProfile bool
)

var laneCmd = &cobra.Command{
	Use:   "lane",
	Short: "Show how a single gel lane is graded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if gelPath == "" {
			return fmt.Errorf("please provide --gel")
		}

		cfg, err := loadStandards(ctx)
		if err != nil {
			return err
		}

		g := loadGel(ctx, gelPath, laneCount, gel.NewAnalyzer(cfg.Image))
		if err := g.Err(); err != nil {
			return err
		}

		res, err := g.Lane(laneIndex)
		if err != nil {
			return err
		}

		var profile []float64
		if showProfile {
			if profile, err = g.Profile(laneIndex); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		err = enc.Encode(struct {
			gel.Result
			Region     string    `json:"region"`
			Inverted   bool      `json:"inverted"`
			Annotation string    `json:"annotation"`
			Profile    []float64 `json:"profile,omitempty"`
		}{
			Result:     res,
			Region:     res.Region.String(),
			Inverted:   g.Inverted(),
			Annotation: res.Annotation(),
			Profile:    profile,
		})
		if err != nil {
			return pfx.Err(err)
		}

		return nil
	},
}

func init() {
	f := laneCmd.Flags()
	f.StringVar(&gelPath, "gel", "", "Gel image")
	f.IntVar(&laneIndex, "lane", 1, "Lane to grade; 0 is the leftmost")
	f.IntVar(&laneCount, "lanes", 14, "Lanes on the gel, ladder included")
	f.BoolVar(&showProfile, "profile", false, "Include the mean intensity of every row of the lane")
}
