package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/scheduler"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// PrintRunHeader prints a formatted manual-run header
func PrintRunHeader(ch contracts.Channel, artifact string, now time.Time) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  Channel %d (column %d)\n", ch.Number(), ch.Column)
	fmt.Println(ruleLight)
	fmt.Printf("  Trigger   : %s\n", ch.TriggerAt)
	fmt.Printf("  Active    : %t\n", ch.Active)
	fmt.Printf("  Artifact  : %s\n", artifact)
	fmt.Println(ruleLight)
	fmt.Printf("[Scan] Manual run triggered at %s\n", now.Format("2006-01-02 15:04:05"))
}

// PrintRunSummary prints the outcome of one channel run
func PrintRunSummary(rec *contracts.RunRecord) {
	if rec == nil {
		return
	}
	duration := rec.FinishedAt.Sub(rec.StartedAt).Seconds()

	fmt.Println()
	fmt.Printf("  Candidates: %d\n", rec.Candidates)
	fmt.Printf("  Accepted  : %d\n", rec.Accepted)
	fmt.Printf("  Rejected  : %d\n", rec.Rejected)

	reasons := make([]string, 0, len(rec.Reasons))
	for r := range rec.Reasons {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("    - %-18s %d\n", r, rec.Reasons[contracts.ReasonCode(r)])
	}
	if rec.ReportPath != "" {
		fmt.Printf("  Report    : %s\n", rec.ReportPath)
	}

	fmt.Println()
	if rec.Success() {
		fmt.Printf("✅ Run %s completed in %.2fs\n", rec.ID, duration)
	} else {
		fmt.Printf("❌ Run %s failed after %.2fs: %s\n", rec.ID, duration, rec.Error)
	}
	fmt.Println(ruleHeavy)
}

// PrintSchedule prints registered triggers, earliest first
func PrintSchedule(snap scheduler.Snapshot) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  Schedule (%s)\n", snap.Phase)
	fmt.Println(ruleLight)

	if len(snap.Triggers) == 0 {
		fmt.Println("  No triggers registered")
	}
	for _, t := range snap.Triggers {
		if t.Kind == scheduler.TriggerSave {
			fmt.Printf("  %-10s %s  next %s\n", "save", t.At, t.Next.Format("2006-01-02 15:04:05"))
			continue
		}
		fmt.Printf("  %-10s %s  next %s\n", fmt.Sprintf("channel %d", t.Channel), t.At, t.Next.Format("2006-01-02 15:04:05"))
	}

	for _, e := range snap.ConfigErrors {
		fmt.Printf("  ⚠️  %s\n", e)
	}
	fmt.Println(ruleHeavy)
}

// PrintChannels prints every parsed channel and configuration problems
func PrintChannels(table *contracts.ConfigTable) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  Configuration (hash %.12s)\n", table.Hash)
	fmt.Println(ruleLight)

	if table.Channels != nil {
		if table.Channels.SaveAt != nil {
			fmt.Printf("  Save at   : %s\n", table.Channels.SaveAt)
		} else {
			fmt.Println("  Save at   : (not set)")
		}
		for _, ch := range table.Channels.Channels {
			state := "inactive"
			if ch.Active {
				state = "active"
			}
			fmt.Printf("  Channel %-3d column %-3d %s  %s\n", ch.Number(), ch.Column, ch.TriggerAt, state)
		}
	}

	for _, err := range table.Errors {
		fmt.Printf("  ⚠️  %s\n", err)
	}
	fmt.Println(ruleHeavy)
}
