package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/curve"
	"github.com/example/revise/internal/timeline"
)

var timelinePoints int

var timelineCmd = &cobra.Command{
	Use:   "timeline [topic]",
	Short: "Show a topic's retention curve over time",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := findTopic(strings.Join(args, " "))
		if err != nil {
			return err
		}

		now := time.Now()
		series := timeline.BuildSeries(topic, now, curve.DefaultRetentionFloor)

		fmt.Printf("Retention timeline for %q:\n", series.TopicTitle)
		for i, seg := range series.Segments {
			kind := "active"
			if seg.IsHistorical {
				kind = "closed"
			}
			fmt.Printf("segment %d (%s): %s -> %s  stability %.2fd\n",
				i+1, kind, formatLocal(seg.Start.At), formatLocal(seg.DisplayEnd), seg.StabilityDays)
			sparkline(seg)
		}

		for _, stitch := range series.Stitches {
			fmt.Printf("review at %s: retention %.0f%% -> 100%%\n",
				formatLocal(stitch.T), stitch.From*100)
		}
		for _, skip := range series.Skips {
			fmt.Printf("skipped at %s\n", formatLocal(skip.At))
		}
		if np := series.NowPoint; np != nil {
			fmt.Printf("now: retention %.0f%%, would hit 1%% around %s\n",
				np.R*100, formatLocal(np.ZeroHorizon))
		}
		return nil
	},
}

// sparkline renders a segment's sampled curve as a coarse text chart.
func sparkline(seg timeline.Segment) {
	levels := []rune("_.-=#")
	var b strings.Builder
	for _, p := range timeline.SampleSegment(seg, timelinePoints) {
		idx := int(p.R * float64(len(levels)))
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		b.WriteRune(levels[idx])
	}
	fmt.Println("  " + b.String())
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().IntVarP(&timelinePoints, "points", "p", 48, "Samples per segment")
}
