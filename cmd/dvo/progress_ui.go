package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/John-Robertt/DVO/internal/app/run"
	"github.com/John-Robertt/DVO/internal/config"
	"github.com/John-Robertt/DVO/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端（或 --verbose）下的进度输出。
//
// 约束：
// - 所有输出写 stderr，不碰 stdout 的 RunReport JSON 契约
// - 批次单线程推进，事件按序到达，不需要锁
// - 非 verbose 时跳过 ignored 条目（隐藏文件逐条打印噪音太大）
type progressUI struct {
	w       io.Writer
	verbose bool

	inbox string
	vault string

	startedAt time.Time

	ok   *color.Color
	plan *color.Color
	warn *color.Color
	fail *color.Color
	dim  *color.Color
}

func newProgressUI(w io.Writer, colorize, verbose bool) *progressUI {
	p := &progressUI{
		w:       w,
		verbose: verbose,
		ok:      color.New(color.FgGreen),
		plan:    color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
	// color 包的全局开关只探测 stdout；这里写的是 stderr，自己拿主意。
	enable := colorize && os.Getenv("NO_COLOR") == ""
	for _, c := range []*color.Color{p.ok, p.plan, p.warn, p.fail, p.dim} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *progressUI) OnStart(eff config.EffectiveConfig, runID string) {
	p.startedAt = time.Now()
	p.inbox = eff.Inbox
	p.vault = eff.Vault

	mode := "live"
	modeHint := ""
	if eff.DryRun {
		mode = "dry-run"
		modeHint = " (不移动/不归档/不清理)"
	}

	fmt.Fprintf(p.w, "[%s] DVO run (%s)\n", p.startedAt.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  inbox: %s\n", eff.Inbox)
	fmt.Fprintf(p.w, "  vault: %s\n", eff.Vault)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  date_dirs: %s  archive_dirs: %s  clean_hidden: %s\n",
		onOff(eff.DateDirs), onOff(eff.ArchiveDirs), onOff(eff.CleanHidden),
	)
	fmt.Fprintf(p.w, "  exiftool: %s (timeout %s)\n", eff.Exiftool, eff.ExiftoolTimeout)
	fmt.Fprintf(p.w, "  run_id: %s\n", runID)
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: entries=%d dirs=%d hidden=%d (%s)\n",
			intField(fields, "entries"), intField(fields, "dirs"), intField(fields, "hidden"),
			formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默（便于演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	if res.Status == domain.StatusIgnored && !p.verbose {
		return
	}

	head := fmt.Sprintf("[%d/%d] %s %s", idx, total, p.label(res.Status), p.rel(p.inbox, res.Src))

	switch res.Status {
	case domain.StatusFailed:
		fmt.Fprintf(p.w, "%s %s: %s (%s)\n",
			head, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	case domain.StatusSkipped:
		detail := res.Reason
		if res.Dst != "" {
			detail += ": " + p.rel(p.vault, res.Dst)
		}
		fmt.Fprintf(p.w, "%s (%s) (%s)\n", head, detail, formatShortDuration(dur))
	case domain.StatusIgnored:
		fmt.Fprintf(p.w, "%s (%s)\n", head, res.Reason)
	case domain.StatusCleaned, domain.StatusWouldClean:
		fmt.Fprintf(p.w, "%s (%s)\n", head, formatShortDuration(dur))
	default:
		// moved / would_move / archived / would_archive：展示金库内的去处。
		line := fmt.Sprintf("%s -> %s", head, p.rel(p.vault, res.Dst))
		if res.Size > 0 {
			line += " (" + humanize.IBytes(uint64(res.Size)) + ")"
		}
		if res.Note != "" {
			line += " (" + truncate(res.Note, 90) + ")"
		}
		fmt.Fprintf(p.w, "%s (%s)\n", line, formatShortDuration(dur))
	}
}

func (p *progressUI) label(status string) string {
	switch status {
	case domain.StatusMoved:
		return p.ok.Sprint("MOVED")
	case domain.StatusWouldMove:
		return p.plan.Sprint("WOULD-MOVE")
	case domain.StatusArchived:
		return p.ok.Sprint("ARCHIVED")
	case domain.StatusWouldArchive:
		return p.plan.Sprint("WOULD-ARCHIVE")
	case domain.StatusCleaned:
		return p.ok.Sprint("CLEANED")
	case domain.StatusWouldClean:
		return p.plan.Sprint("WOULD-CLEAN")
	case domain.StatusSkipped:
		return p.warn.Sprint("SKIP")
	case domain.StatusFailed:
		return p.fail.Sprint("FAIL")
	case domain.StatusIgnored:
		return p.dim.Sprint("IGNORE")
	default:
		return strings.ToUpper(status)
	}
}

// rel 把绝对路径压缩成相对 base 的短名；出 base 范围或失败时退回文件名。
func (p *progressUI) rel(base, path string) string {
	if base == "" || path == "" {
		return filepath.Base(path)
	}
	r, err := filepath.Rel(base, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return r
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
