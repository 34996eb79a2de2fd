package anomaly

import (
	"fmt"
	"strings"
	"time"
)

// Report renders a markdown summary of the flagged results of one metric, grouped by severity.
// High anomalies are listed individually with their expected value, medium ones compactly, and
// low ones are only counted.
func Report(metric string, results []Result, now time.Time) string {
	flagged := Anomalies(results)
	if len(flagged) == 0 {
		return "No anomalies detected"
	}

	groups := map[Level][]Result{}
	for _, r := range flagged {
		groups[r.Severity] = append(groups[r.Severity], r)
	}

	var b strings.Builder
	b.WriteString("# Anomaly report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Metric: %s\n", metric)
	fmt.Fprintf(&b, "Detected %d anomalies\n\n", len(flagged))

	if high := groups[LevelHigh]; len(high) > 0 {
		fmt.Fprintf(&b, "## High severity (%d)\n\n", len(high))
		for _, r := range high {
			fmt.Fprintf(&b, "- **%s** at %s: value %.2f, expected %.2f, deviation %.2f\n",
				metric, r.Time.Format(time.RFC3339), r.Value, r.Baseline, r.Deviation)
		}
		b.WriteString("\n")
	}

	if medium := groups[LevelMedium]; len(medium) > 0 {
		fmt.Fprintf(&b, "## Medium severity (%d)\n\n", len(medium))
		for _, r := range medium {
			fmt.Fprintf(&b, "- **%s**: value %.2f, expected %.2f, deviation %.2f\n",
				metric, r.Value, r.Baseline, r.Deviation)
		}
		b.WriteString("\n")
	}

	if low := groups[LevelLow]; len(low) > 0 {
		fmt.Fprintf(&b, "## Low severity (%d)\n\n", len(low))
		fmt.Fprintf(&b, "%d low severity anomalies detected, worth keeping an eye on.\n\n", len(low))
	}

	return b.String()
}
