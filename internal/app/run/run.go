// Package run 驱动一次完整的整理批次：扫描收件箱、逐条判定分类、落位金库。
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/DVO/internal/archive"
	"github.com/John-Robertt/DVO/internal/classify"
	"github.com/John-Robertt/DVO/internal/config"
	"github.com/John-Robertt/DVO/internal/domain"
	"github.com/John-Robertt/DVO/internal/infra/lock"
	"github.com/John-Robertt/DVO/internal/place"
	"github.com/John-Robertt/DVO/internal/provider"
	"github.com/John-Robertt/DVO/internal/scan"
	"github.com/John-Robertt/DVO/internal/stamp"
)

// SetupError 表示批次根本无法开始（收件箱缺失、金库不可用、锁被占用）。
// 与单条目失败不同：单条失败折叠进报告，SetupError 让整个进程以非零码退出。
type SetupError struct {
	Code string // domain.ErrCode*
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s：%v", e.Code, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// SetupCode 取 SetupError 的错误码；非 SetupError 返回空串。
func SetupCode(err error) string {
	var se *SetupError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Runner 持有一次批次需要的全部依赖，构造后只读。
type Runner struct {
	Cfg      config.EffectiveConfig
	Provider provider.MetadataProvider
	Obs      Observer // 可为 nil
}

// Execute 执行一次批次并返回对外稳定的 RunReport。
//
// 错误约定：返回的 error 只会是 *SetupError；一旦批次开始，
// 任何单文件失败都降级为 item 级结果，绝不中断其余条目。
func (r *Runner) Execute(ctx context.Context) (domain.RunReport, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()

	if r.Obs != nil {
		r.Obs.OnStart(r.Cfg, runID)
	}

	rr := domain.RunReport{
		RunID:     runID,
		Inbox:     r.Cfg.Inbox,
		Vault:     r.Cfg.Vault,
		DryRun:    r.Cfg.DryRun,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 64),
	}

	table, err := classify.NewTable(r.Cfg.Rules)
	if err != nil {
		return domain.RunReport{}, &SetupError{Code: domain.ErrCodeConfigInvalid, Err: err}
	}

	if err := checkInbox(r.Cfg.Inbox); err != nil {
		return domain.RunReport{}, &SetupError{Code: domain.ErrCodeInboxMissing, Err: err}
	}
	if err := ensureVault(r.Cfg.Vault, r.Cfg.DryRun); err != nil {
		return domain.RunReport{}, &SetupError{Code: domain.ErrCodeVaultUnusable, Err: err}
	}

	// dry-run 不取锁：建锁文件本身就是对金库的改动。
	if !r.Cfg.DryRun {
		guard, err := lock.Acquire(r.Cfg.Vault)
		if err != nil {
			if errors.Is(err, lock.ErrHeld) {
				return domain.RunReport{}, &SetupError{Code: domain.ErrCodeLockHeld, Err: err}
			}
			return domain.RunReport{}, &SetupError{Code: domain.ErrCodeVaultUnusable, Err: err}
		}
		defer guard.Release()
	}

	scanStarted := time.Now()
	entries, err := scan.ScanInbox(r.Cfg.Inbox)
	if err != nil {
		return domain.RunReport{}, &SetupError{Code: domain.ErrCodeInboxMissing, Err: err}
	}
	if r.Obs != nil {
		var dirs, hidden int
		for _, e := range entries {
			if e.Dir {
				dirs++
			}
			if e.Hidden {
				hidden++
			}
		}
		r.Obs.OnPhaseDone("scan", map[string]any{
			"entries": len(entries),
			"dirs":    dirs,
			"hidden":  hidden,
		}, time.Since(scanStarted))
	}

	dis := &classify.Disambiguator{Provider: r.Provider, Sniffer: classify.FileSniffer{}}
	placer := &place.Placer{Vault: r.Cfg.Vault, DateDirs: r.Cfg.DateDirs, DryRun: r.Cfg.DryRun}

	for i, e := range entries {
		oneStarted := time.Now()

		var item domain.ItemResult
		switch {
		case e.Hidden:
			item = r.hidden(e)
		case e.Dir:
			item = r.dir(ctx, e, placer)
		case !e.Regular:
			item = domain.ItemResult{
				Src:    e.AbsPath,
				Status: domain.StatusIgnored,
				Reason: domain.ReasonNotRegular,
			}
		default:
			item = r.file(ctx, e, table, dis, placer)
		}

		rr.Items = append(rr.Items, item)
		if r.Obs != nil {
			r.Obs.OnItemDone(i+1, len(entries), item, time.Since(oneStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr, nil
}

// file 是常规文件的完整管线：判定 -> 消歧 -> 落位。
func (r *Runner) file(ctx context.Context, e domain.FileEntry, table *classify.Table, dis *classify.Disambiguator, placer *place.Placer) domain.ItemResult {
	dec := table.Classify(e)
	cat, note := dis.Resolve(ctx, e, dec)
	out := placer.Put(e, cat)

	item := domain.ItemResult{
		Src:      e.AbsPath,
		Size:     e.Size,
		Category: string(cat),
		Dst:      out.Dst,
		Status:   out.Status,
		Reason:   out.Reason,
		Note:     note,
	}
	if out.Err != nil {
		item.ErrorCode = out.ErrorCode
		item.ErrorMsg = out.Err.Error()
	}
	return item
}

// hidden 处理点号开头的条目。清理只针对文件；隐藏目录始终不碰。
func (r *Runner) hidden(e domain.FileEntry) domain.ItemResult {
	item := domain.ItemResult{Src: e.AbsPath, Status: domain.StatusIgnored, Reason: domain.ReasonHidden}
	if !r.Cfg.CleanHidden || e.Dir {
		return item
	}
	if r.Cfg.DryRun {
		item.Status = domain.StatusWouldClean
		item.Reason = ""
		return item
	}
	if err := os.Remove(e.AbsPath); err != nil {
		item.Status = domain.StatusFailed
		item.Reason = ""
		item.ErrorCode = domain.ErrCodeCleanFailed
		item.ErrorMsg = err.Error()
		return item
	}
	item.Status = domain.StatusCleaned
	item.Reason = ""
	return item
}

// dir 处理子目录：开启归档时打包进金库档案，否则原地不动。
func (r *Runner) dir(ctx context.Context, e domain.FileEntry, placer *place.Placer) domain.ItemResult {
	if !r.Cfg.ArchiveDirs {
		return domain.ItemResult{Src: e.AbsPath, Status: domain.StatusIgnored, Reason: domain.ReasonDirectory}
	}

	ts := stamp.Source(e)
	zipName := archive.ZipName(e.Name, ts)
	item := domain.ItemResult{Src: e.AbsPath, Category: string(domain.CatArchives)}

	if r.Cfg.DryRun {
		t := placer.Plan(zipEntry(zipName, ts), domain.CatArchives)
		item.Status = domain.StatusWouldArchive
		item.Dst = t.Path
		return item
	}

	zipPath, err := archive.ZipDir(ctx, e.AbsPath, ts)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeArchiveFailed
		item.ErrorMsg = err.Error()
		return item
	}

	ze, err := statEntry(zipPath)
	if err != nil {
		_ = os.Remove(zipPath)
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeArchiveFailed
		item.ErrorMsg = err.Error()
		return item
	}

	out := placer.Put(ze, domain.CatArchives)
	item.Size = ze.Size
	item.Dst = out.Dst

	switch out.Status {
	case domain.StatusMoved:
		if err := os.RemoveAll(e.AbsPath); err != nil {
			// 档案已落位但源目录还在：明确报失败，下一轮会按既有档案跳过。
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeCleanFailed
			item.ErrorMsg = fmt.Sprintf("档案已落位但源目录删除失败：%v", err)
			return item
		}
		item.Status = domain.StatusArchived
		return item
	case domain.StatusSkipped:
		// 金库已有同名/同内容档案：清掉刚打的 zip，源目录保留给用户处置。
		_ = os.Remove(zipPath)
		item.Status = domain.StatusSkipped
		item.Reason = out.Reason
		return item
	default:
		_ = os.Remove(zipPath)
		item.Status = domain.StatusFailed
		item.ErrorCode = out.ErrorCode
		if out.Err != nil {
			item.ErrorMsg = out.Err.Error()
		}
		return item
	}
}

// zipEntry 构造尚未存在的 zip 的条目（仅供 dry-run 规划路径）。
func zipEntry(name string, ts time.Time) domain.FileEntry {
	return domain.FileEntry{
		Name:    name,
		Ext:     ".zip",
		Regular: true,
		ModTime: ts,
	}
}

func statEntry(path string) (domain.FileEntry, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return domain.FileEntry{}, err
	}
	name := fi.Name()
	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = strings.ToLower(name[i:])
	}
	return domain.FileEntry{
		AbsPath: path,
		Name:    name,
		Ext:     ext,
		Size:    fi.Size(),
		Regular: true,
		ModTime: fi.ModTime(),
	}, nil
}

func checkInbox(inbox string) error {
	fi, err := os.Stat(inbox)
	if err != nil {
		return fmt.Errorf("收件箱不可用：%w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("收件箱不是目录：%q", inbox)
	}
	return nil
}

// ensureVault 校验金库可用；缺失时只有实跑才建目录。
func ensureVault(vault string, dryRun bool) error {
	fi, err := os.Stat(vault)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return fmt.Errorf("金库路径被文件占用：%q", vault)
		}
		return nil
	case os.IsNotExist(err):
		if dryRun {
			return nil
		}
		if err := os.MkdirAll(vault, 0o755); err != nil {
			return fmt.Errorf("建立金库失败：%w", err)
		}
		return nil
	default:
		return fmt.Errorf("金库不可用：%w", err)
	}
}
