package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/linkforge/linkforge/internal/models"
)

// strategyTally counts job outcomes for one strategy.
type strategyTally struct {
	total        int
	posted       int
	failed       int
	verification int
}

// buildSummary renders the completion report for a campaign as markdown.
// The markdown is the canonical report content; the PDF is a rendering of it.
func buildSummary(campaign *models.QueuedCampaign, jobs []*models.PostingJob) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Campaign Report: %s\n\n", campaign.Config.Name)

	fmt.Fprintf(&b, "**Status:** %s\n\n", campaign.Status)
	fmt.Fprintf(&b, "**Target URL:** %s\n\n", campaign.Config.TargetURL)
	fmt.Fprintf(&b, "**Keywords:** %s\n\n", strings.Join(campaign.Config.Keywords, ", "))
	fmt.Fprintf(&b, "**Priority:** %s\n\n", campaign.Priority)

	if campaign.StartedAt != nil {
		fmt.Fprintf(&b, "**Started:** %s\n\n", campaign.StartedAt.Format(time.RFC1123))
	}
	if campaign.CompletedAt != nil {
		fmt.Fprintf(&b, "**Completed:** %s\n\n", campaign.CompletedAt.Format(time.RFC1123))
	}
	if campaign.ActualDuration > 0 {
		fmt.Fprintf(&b, "**Duration:** %s (estimated %s)\n\n",
			campaign.ActualDuration.Round(time.Second), campaign.EstimatedDuration.Round(time.Second))
	}
	if campaign.ErrorMessage != "" {
		fmt.Fprintf(&b, "**Error:** %s\n\n", campaign.ErrorMessage)
	}

	b.WriteString("## Results by Strategy\n\n")
	writeStrategyTable(&b, jobs)

	links := postedLinks(jobs)
	if len(links) > 0 {
		b.WriteString("\n## Placed Links\n\n")
		for _, job := range links {
			fmt.Fprintf(&b, "- %s (%s, keyword %q)\n", job.TargetPageURL, job.Strategy, job.Keyword)
		}
	}

	pending := pendingReview(jobs)
	if len(pending) > 0 {
		b.WriteString("\n## Needs Manual Verification\n\n")
		for _, job := range pending {
			fmt.Fprintf(&b, "- %s (%s)\n", job.TargetPageURL, job.Strategy)
		}
	}

	return b.String()
}

func writeStrategyTable(b *strings.Builder, jobs []*models.PostingJob) {
	tallies := make(map[models.StrategyType]*strategyTally)
	for _, job := range jobs {
		t := tallies[job.Strategy]
		if t == nil {
			t = &strategyTally{}
			tallies[job.Strategy] = t
		}
		t.total++
		switch job.Status {
		case models.JobStatusPosted:
			t.posted++
		case models.JobStatusFailed:
			t.failed++
		case models.JobStatusNeedsVerification:
			t.verification++
		}
	}

	types := make([]string, 0, len(tallies))
	for st := range tallies {
		types = append(types, string(st))
	}
	sort.Strings(types)

	b.WriteString("| Strategy | Jobs | Posted | Failed | Needs Verification |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, st := range types {
		t := tallies[models.StrategyType(st)]
		fmt.Fprintf(b, "| %s | %d | %d | %d | %d |\n", st, t.total, t.posted, t.failed, t.verification)
	}
	if len(types) == 0 {
		b.WriteString("| (no jobs) | 0 | 0 | 0 | 0 |\n")
	}
}

func postedLinks(jobs []*models.PostingJob) []*models.PostingJob {
	var out []*models.PostingJob
	for _, job := range jobs {
		if job.Status == models.JobStatusPosted {
			out = append(out, job)
		}
	}
	return out
}

func pendingReview(jobs []*models.PostingJob) []*models.PostingJob {
	var out []*models.PostingJob
	for _, job := range jobs {
		if job.Status == models.JobStatusNeedsVerification {
			out = append(out, job)
		}
	}
	return out
}
