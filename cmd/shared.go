package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pomyannik/pomyannik/pkg/clierr"
)

// parseID converts a positional argument into a folder or card ID.
func parseID(what, arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, clierr.New(clierr.Validation, fmt.Sprintf("Invalid %s ID %q. It must be a positive integer.", what, arg), err)
	}
	return id, nil
}

// parseTimeout accepts Go durations ("15s") and bare seconds ("15").
func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, clierr.New(clierr.Validation, fmt.Sprintf("Invalid timeout %q.", s), err)
	}
	return d, nil
}

// formatBytes renders a byte count with binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// newTable returns a left-aligned table without row separators.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// oneLine strips line breaks so free text fits in a table cell.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
