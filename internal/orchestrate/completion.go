package orchestrate

import (
	"fmt"
	"strings"

	"github.com/mirzaaghazadeh/strix/internal/display"
	"github.com/mirzaaghazadeh/strix/internal/format"
)

// RenderCompletion is the panel shown after the scan engine returns.
func RenderCompletion(o *Outcome) string {
	var b strings.Builder
	tone := display.Success
	if o.Result.ScanCompleted {
		b.WriteString("🦉 AGENT FINISHED • Penetration test completed\n\n")
	} else {
		tone = display.Info
		b.WriteString("🦉 SESSION ENDED • Penetration test interrupted by user\n\n")
	}

	tb := format.NewTable()
	tb.Title("🎯 " + format.Plural(len(o.Config.Targets), "target"))
	tb.Header("#", "Target", "Type", "Workspace")
	for i, t := range o.Config.Targets {
		tb.Row(i+1, format.Truncate(t.Display(), 60), display.Kind(string(t.Kind)), t.WorkspaceSubdir)
	}
	tb.Columns(format.ColumnConfig{Number: 1, Align: format.AlignRight})
	b.WriteString(tb.String())
	b.WriteString("\n")

	fmt.Fprintf(&b, "\nFindings: %d", len(o.Result.VulnerabilityReports))
	fmt.Fprintf(&b, "\nElapsed: %s", format.FmtDuration(o.Elapsed))
	if o.Result.ScanCompleted || len(o.Result.VulnerabilityReports) > 0 {
		fmt.Fprintf(&b, "\n\n📊 Results Saved To: %s", o.RunDir)
	}
	return display.Panel("🛡️  STRIX CYBERSECURITY AGENT", b.String(), tone)
}
