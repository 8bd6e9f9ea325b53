package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/John-Robertt/DVO/internal/domain"
)

// MetadataProvider 把“提取工具变化”限制在 provider 包内部；
// 核心流程只依赖统一接口与稳定的 Tags。
//
// 约束：
// - Fetch 不做缓存、不做重试（失败由调用方按兜底分类消化，绝不中断批次）
// - tags 给出时只请求这些标签；为 nil 时请求全部标签
// - 值一律扁平化为字符串；路径衍生标签（SourceFile）不得出现在结果里
// - 任何失败都必须是 *Error（带 Stage），便于归类与呈现
type MetadataProvider interface {
	Name() string
	Fetch(ctx context.Context, path string, tags []string) (domain.Tags, error)
}

const (
	// StageUnavailable 表示提取工具本身不可用（未安装/不在 PATH）。
	StageUnavailable = "unavailable"
	// StageExec 表示工具执行失败（退出码非零、超时、文件损坏）。
	StageExec = "exec"
	// StageDecode 表示工具输出无法解析。
	StageDecode = "decode"
)

// Error 是元数据提取阶段的可追溯错误。
// 上层据此把失败归类并写入 report 的 note；分类本身走兜底值。
type Error struct {
	Provider string // provider name（小写）
	Stage    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Stage 从 error 中提取失败阶段；若不是 *Error 则返回空串。
func Stage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
