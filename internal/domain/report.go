package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusMoved        = "moved"
	StatusWouldMove    = "would_move"
	StatusSkipped      = "skipped"
	StatusFailed       = "failed"
	StatusArchived     = "archived"
	StatusWouldArchive = "would_archive"
	StatusCleaned      = "cleaned"
	StatusWouldClean   = "would_clean"
	StatusIgnored      = "ignored"
)

const (
	ReasonExists     = "exists"
	ReasonDuplicate  = "duplicate"
	ReasonHidden     = "hidden"
	ReasonDirectory  = "directory"
	ReasonNotRegular = "not_regular"
)

const (
	ErrCodeSourceUnreadable = "source_unreadable"
	ErrCodeDestUnwritable   = "dest_unwritable"
	ErrCodeMoveFailed       = "move_failed"
	ErrCodeArchiveFailed    = "archive_failed"
	ErrCodeCleanFailed      = "clean_failed"

	ErrCodeConfigNotFound = "config_not_found"
	ErrCodeConfigInvalid  = "config_invalid"
	ErrCodeInboxMissing   = "inbox_missing"
	ErrCodeVaultUnusable  = "vault_unusable"
	ErrCodeLockHeld       = "lock_held"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	RunID  string `json:"run_id"`
	Inbox  string `json:"inbox"`
	Vault  string `json:"vault"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

// ReportSummary 按去向聚合条目数；预演状态计入同名桶
// （would_move -> Moved 等），保证干跑与实跑的汇总可直接对比。
type ReportSummary struct {
	Moved    int `json:"moved"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Archived int `json:"archived"`
	Cleaned  int `json:"cleaned"`
	Ignored  int `json:"ignored"`
}

// ItemResult 记录单个收件箱条目的最终去向。
type ItemResult struct {
	Src      string `json:"src"`
	Size     int64  `json:"size,omitempty"`
	Category string `json:"category,omitempty"`
	Dst      string `json:"dst,omitempty"`

	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Note   string `json:"note,omitempty"`

	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 Src 字典序；Src=="" 的合成项排在最后
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Src
		b := r.Items[j].Src
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusMoved, StatusWouldMove:
			s.Moved++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		case StatusArchived, StatusWouldArchive:
			s.Archived++
		case StatusCleaned, StatusWouldClean:
			s.Cleaned++
		case StatusIgnored:
			s.Ignored++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
