package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/zsiec/vvcindex/pipeline"
)

func writeReports(w io.Writer, format string, reports []pipeline.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		for i, rep := range reports {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := writeText(w, rep); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, rep pipeline.Report) error {
	fmt.Fprintf(w, "%s: %d units, %d malformed, %d frames, %d SPS\n",
		rep.Name, rep.Units, rep.Malformed, len(rep.Frames), len(rep.ParameterSets))
	if rep.SkippedBytes > 0 || rep.LeadingBytes > 0 {
		fmt.Fprintf(w, "skipped %d bytes, %d bytes before first AU\n", rep.SkippedBytes, rep.LeadingBytes)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(rep.ParameterSets) > 0 {
		fmt.Fprintln(tw, "\nSPS\tID\tRANGE\tCODEC\tSIZE\tSTATUS")
		for _, ps := range rep.ParameterSets {
			status := "superseded"
			switch {
			case ps.Error != "":
				status = "error: " + ps.Error
			case ps.Active:
				status = "active"
			}
			size := "-"
			if ps.Width > 0 && ps.Height > 0 {
				size = fmt.Sprintf("%dx%d", ps.Width, ps.Height)
			}
			codec := ps.Codec
			if codec == "" {
				codec = "-"
			}
			fmt.Fprintf(tw, "%d\t%d\t%d-%d\t%s\t%s\t%s\n", ps.Index, ps.ID, ps.Start, ps.End, codec, size, status)
		}
	}
	if len(rep.Frames) > 0 {
		fmt.Fprintln(tw, "\nFRAME\tRANGE\tBYTES\tRA")
		for _, f := range rep.Frames {
			ra := ""
			if f.RandomAccess {
				ra = "yes"
			}
			fmt.Fprintf(tw, "%d\t%d-%d\t%d\t%s\n", f.Counter, f.Start, f.End, f.End-f.Start+1, ra)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b := rep.Bitrate
	fmt.Fprintf(w, "\nbitrate: %d samples, %d bytes, mean %.1f B, peak %d B at %d, %.2f kbps mean, %.2f kbps window @ %.2f fps\n",
		b.Samples, b.TotalBytes, b.MeanBytes, b.PeakBytes, b.PeakPTS, b.MeanKbps, b.WindowKbps, b.FrameRate)

	if len(rep.Trace) > 0 {
		fmt.Fprintln(w, "\ntrace:")
		for _, pt := range rep.Trace {
			fmt.Fprintf(w, "  %d\t%d\n", pt.PTS, pt.Bytes)
		}
	}
	if len(rep.Nodes) > 0 {
		fmt.Fprintln(w, "\nunits:")
		for _, n := range rep.Nodes {
			label := n.Label
			if label == "" {
				label = fmt.Sprintf("NAL %d", n.Index)
			}
			fmt.Fprintf(w, "  %s\n", label)
			for _, e := range n.Errors {
				fmt.Fprintf(w, "    ERROR: %s\n", e)
			}
		}
	}
	return nil
}
