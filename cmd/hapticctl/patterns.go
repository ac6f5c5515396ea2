package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
)

var namedPatterns = []actuator.ActuationID{
	actuator.PatternNone, actuator.PatternWeak, actuator.PatternMedium, actuator.PatternStrong,
}

// parsePattern accepts a pattern name ("weak", "medium", "strong", "none")
// or any int32 id. Unknown ids are passed through to the driver.
func parsePattern(s string) (actuator.ActuationID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, id := range namedPatterns {
		if actuator.PatternName(id) == name {
			return id, nil
		}
	}
	n, err := strconv.ParseInt(name, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pattern %q: want a name or a 32-bit integer", s)
	}
	return actuator.ActuationID(n), nil
}

type patternRow struct {
	ID    int32  `json:"id"`
	Name  string `json:"name,omitempty"`
	Known bool   `json:"known"`
}

func newPatternsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List actuation patterns",
		Args:  cobra.NoArgs,
		RunE:  runPatterns,
	}
}

func runPatterns(cmd *cobra.Command, _ []string) error {
	known := make(map[actuator.ActuationID]bool, len(actuator.KnownPatterns))
	for _, id := range actuator.KnownPatterns {
		known[id] = true
	}

	seen := make(map[actuator.ActuationID]bool)
	var rows []patternRow
	for _, id := range append(append([]actuator.ActuationID{}, namedPatterns...), actuator.KnownPatterns...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, patternRow{ID: int32(id), Name: actuator.PatternName(id), Known: known[id]})
	}

	out := newOutputFormatter(cmd)
	if out.jsonMode {
		return out.printJSON(rows)
	}

	w := tabwriter.NewWriter(out.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKNOWN")
	for _, r := range rows {
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%t\n", r.ID, name, r.Known)
	}
	return w.Flush()
}
