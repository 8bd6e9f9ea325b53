package run

import (
	"time"

	"github.com/John-Robertt/DVO/internal/config"
	"github.com/John-Robertt/DVO/internal/domain"
)

// Observer 把运行进度从核心流程解耦出来。
//
// 约束：
// - run 包只发事件，不做任何输出（stdout 的 JSON 契约不容污染）
// - 批次单线程推进，事件按序到达，实现无需并发安全
type Observer interface {
	// OnStart 在批次开始时调用（尽量早，保证用户第一时间看到输出）。
	OnStart(eff config.EffectiveConfig, runID string)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在单个条目处理完成时调用。
	OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration)
}
