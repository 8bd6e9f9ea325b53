// Package place 把判定好分类的文件落位到金库。
//
// 不变量
// - 绝不覆盖已有文件：同名即跳过，由 fsx 的 no-replace 移动兜底竞态
// - 单文件失败折叠进 Outcome，绝不上抛，保证批次推进
// - dry-run 下不做任何文件系统改动（目录也不建）
package place

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/DVO/internal/domain"
	"github.com/John-Robertt/DVO/internal/infra/fsx"
	"github.com/John-Robertt/DVO/internal/stamp"
)

// 重复判定：同目录下存在大小相同且修改时间相差小于该值的文件。
const duplicateWindow = time.Second

// Placer 的字段来自生效配置，构造后只读。
type Placer struct {
	Vault    string
	DateDirs bool
	DryRun   bool
}

// Target 是一次移动的完整去向（纯计算结果）。
type Target struct {
	Dir  string // 目标目录
	Path string // 目标完整路径
	Name string // 最终文件名（含时间戳）
}

// Plan 计算 e 在 cat 下的去向。纯函数：不触文件系统。
// 开启日期目录时按时间来源展开 <分类>/YYYY/YYYY-MM/YYYY-MM-DD。
func (p *Placer) Plan(e domain.FileEntry, cat domain.Category) Target {
	name := stamp.Resolve(e)
	dir := filepath.Join(p.Vault, filepath.FromSlash(string(cat)))
	if p.DateDirs {
		ts := stamp.Source(e)
		dir = filepath.Join(dir,
			ts.Format("2006"),
			ts.Format("2006-01"),
			ts.Format("2006-01-02"))
	}
	return Target{Dir: dir, Path: filepath.Join(dir, name), Name: name}
}

// Outcome 是落位结果，字段直接映射报告条目。
type Outcome struct {
	Status    string
	Reason    string
	Dst       string
	ErrorCode string
	Err       error
}

// Put 执行（或预演）落位。
func (p *Placer) Put(e domain.FileEntry, cat domain.Category) Outcome {
	t := p.Plan(e, cat)

	if dup, ok := p.duplicate(e, t.Dir); ok {
		return Outcome{Status: domain.StatusSkipped, Reason: domain.ReasonDuplicate, Dst: dup}
	}

	if _, err := os.Lstat(t.Path); err == nil {
		return Outcome{Status: domain.StatusSkipped, Reason: domain.ReasonExists, Dst: t.Path}
	} else if !os.IsNotExist(err) {
		return Outcome{Status: domain.StatusFailed, Dst: t.Path, ErrorCode: domain.ErrCodeDestUnwritable, Err: err}
	}

	if p.DryRun {
		return Outcome{Status: domain.StatusWouldMove, Dst: t.Path}
	}

	if err := fsx.EnsureDir(t.Dir); err != nil {
		return Outcome{Status: domain.StatusFailed, Dst: t.Path, ErrorCode: domain.ErrCodeDestUnwritable, Err: err}
	}
	if err := fsx.MoveNoOverwrite(e.AbsPath, t.Path); err != nil {
		switch {
		case errors.Is(err, os.ErrExist):
			// 检查与移动之间有并发写入者：按既有文件跳过。
			return Outcome{Status: domain.StatusSkipped, Reason: domain.ReasonExists, Dst: t.Path}
		case os.IsNotExist(err):
			return Outcome{Status: domain.StatusFailed, Dst: t.Path, ErrorCode: domain.ErrCodeSourceUnreadable, Err: err}
		default:
			return Outcome{Status: domain.StatusFailed, Dst: t.Path, ErrorCode: domain.ErrCodeMoveFailed, Err: err}
		}
	}
	return Outcome{Status: domain.StatusMoved, Dst: t.Path}
}

// duplicate 在目标目录里找同大小且修改时间相差小于 duplicateWindow 的文件。
// 目录不存在或读取失败都视为无重复：重复检查只省工，不挡路。
func (p *Placer) duplicate(e domain.FileEntry, dir string) (string, bool) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, d := range ents {
		if d.IsDir() {
			continue
		}
		fi, err := d.Info()
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		if fi.Size() != e.Size {
			continue
		}
		delta := fi.ModTime().Sub(e.ModTime)
		if delta < 0 {
			delta = -delta
		}
		if delta < duplicateWindow {
			return filepath.Join(dir, d.Name()), true
		}
	}
	return "", false
}
