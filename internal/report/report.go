// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package report renders run reports in Markdown format.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Azure/azgov/reconcile"
	"github.com/nao1215/markdown"
)

var (
	ErrReportGenerationFailed = fmt.Errorf("failed to generate report")
)

// Metadata describes the run a report is written for.
type Metadata struct {
	RunID              string
	HubSubscription    string
	ZonesResourceGroup string
	DryRun             bool
}

// DNSLinksMd writes a Markdown report of a private DNS zone link reconciliation.
func DNSLinksMd(w io.Writer, meta Metadata, res *reconcile.Result) error {
	if res == nil {
		return errors.Join(ErrReportGenerationFailed, errors.New("no result"))
	}

	md := markdown.NewMarkdown(w)

	md = dnsLinksMdTitle(md, meta, res)
	md = dnsLinksMdSummary(md, res.Summary)
	md = dnsLinksMdFailures(md, res.Plan)
	md = md.HorizontalRule()
	md = dnsLinksMdActions(md, res.Log)

	if err := md.Build(); err != nil {
		return errors.Join(ErrReportGenerationFailed, err)
	}

	return nil
}

func dnsLinksMdTitle(md *markdown.Markdown, meta Metadata, res *reconcile.Result) *markdown.Markdown {
	mode := "apply"
	if meta.DryRun {
		mode = "dry run"
	}

	return md.H1f("Private DNS zone links (%s)", mode).LF().
		BulletList(
			"Run ID: `"+meta.RunID+"`",
			"Hub subscription: "+meta.HubSubscription,
			"Zones resource group: "+meta.ZonesResourceGroup,
			fmt.Sprintf("Subscriptions in scope: %d", len(res.Subscriptions)),
			fmt.Sprintf("Zones in scope: %d", len(res.Zones)),
		).LF()
}

func dnsLinksMdSummary(md *markdown.Markdown, s reconcile.Summary) *markdown.Markdown {
	decisions := markdown.TableSet{
		Header: []string{"Decision", "Count"},
		Rows: [][]string{
			{string(reconcile.DecisionCreate), strconv.Itoa(s.Decisions[reconcile.DecisionCreate])},
			{string(reconcile.DecisionReplace), strconv.Itoa(s.Decisions[reconcile.DecisionReplace])},
			{string(reconcile.DecisionNoop), strconv.Itoa(s.Decisions[reconcile.DecisionNoop])},
		},
	}

	outcomes := markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   [][]string{},
	}
	for _, o := range []reconcile.Outcome{
		reconcile.OutcomeApplied,
		reconcile.OutcomeFailed,
		reconcile.OutcomeSkipped,
		reconcile.OutcomeSkippedDryRun,
	} {
		outcomes.Rows = append(outcomes.Rows, []string{string(o), strconv.Itoa(s.Outcomes[o])})
	}

	return md.H2("Summary").LF().
		Table(decisions).LF().
		Table(outcomes).LF()
}

func dnsLinksMdFailures(md *markdown.Markdown, plan *reconcile.Plan) *markdown.Markdown {
	if plan == nil || len(plan.Failures) == 0 {
		return md
	}

	md = md.H2("Discovery failures").LF()
	for _, f := range plan.Failures {
		md = md.BulletList(f.Error())
	}

	return md.LF()
}

func dnsLinksMdActions(md *markdown.Markdown, log *reconcile.ActionLog) *markdown.Markdown {
	md = md.H2("Actions").LF()
	if log == nil {
		return md.PlainText("No actions were recorded.").LF()
	}

	entries := log.Entries()
	if len(entries) == 0 {
		return md.PlainText("No actions were recorded.").LF()
	}

	t := markdown.TableSet{
		Header: []string{"Seq", "Zone", "Network", "Decision", "Operation", "Link", "Outcome", "Error"},
		Rows:   [][]string{},
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.Seq),
			e.Zone,
			e.NetworkName,
			string(e.Decision),
			string(e.Operation),
			e.LinkName,
			string(e.Outcome),
			e.Error,
		})
	}

	return md.Table(t).LF()
}
