package main

import (
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/John-Robertt/DVO/internal/domain"
)

// renderSummary 把 RunReport 渲染为终端摘要表。
// 只在 stdout 为 TTY 时调用；非 TTY 的 stdout 只允许出现 RunReport JSON。
func renderSummary(rr domain.RunReport) string {
	// 体积按去向聚合；预演状态计入同名桶，与 Summary 的口径一致。
	sizes := map[string]int64{}
	for _, it := range rr.Items {
		switch it.Status {
		case domain.StatusMoved, domain.StatusWouldMove:
			sizes["moved"] += it.Size
		case domain.StatusSkipped:
			sizes["skipped"] += it.Size
		case domain.StatusFailed:
			sizes["failed"] += it.Size
		case domain.StatusArchived, domain.StatusWouldArchive:
			sizes["archived"] += it.Size
		case domain.StatusCleaned, domain.StatusWouldClean:
			sizes["cleaned"] += it.Size
		case domain.StatusIgnored:
			sizes["ignored"] += it.Size
		}
	}

	rows := []struct {
		name  string
		count int
	}{
		{"moved", rr.Summary.Moved},
		{"skipped", rr.Summary.Skipped},
		{"failed", rr.Summary.Failed},
		{"archived", rr.Summary.Archived},
		{"cleaned", rr.Summary.Cleaned},
		{"ignored", rr.Summary.Ignored},
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"去向", "数量", "体积"})

	total := 0
	var totalSize int64
	for _, r := range rows {
		tw.AppendRow(table.Row{r.name, r.count, humanize.IBytes(uint64(sizes[r.name]))})
		total += r.count
		totalSize += sizes[r.name]
	}
	tw.AppendFooter(table.Row{"合计", total, humanize.IBytes(uint64(totalSize))})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
