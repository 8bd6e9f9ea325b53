package exiftool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/DVO/internal/domain"
	"github.com/John-Robertt/DVO/internal/provider"
)

const name = "exiftool"

// lookPathFunc / runFunc 便于测试注入“二进制缺失/执行失败”的情形。
var (
	lookPathFunc = exec.LookPath
	runFunc      = run
)

// Tool 通过 `exiftool -json` 提取标签。
//
// 约束：
// - 单次调用带超时（上限由配置给定），超时即失败，不重试
// - 只读 stdout；stderr 只进错误消息，绝不混入 JSON 解码
type Tool struct {
	binary  string
	timeout time.Duration
}

// New 构造 exiftool 提供方。binary 为空时用默认名（按 PATH 查找）。
func New(binary string, timeout time.Duration) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = name
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Tool{binary: binary, timeout: timeout}
}

func (t *Tool) Name() string { return name }

// Fetch 请求 path 的标签；tags 为 nil 时请求全部。
func (t *Tool) Fetch(ctx context.Context, path string, tags []string) (domain.Tags, error) {
	if _, err := lookPathFunc(t.binary); err != nil {
		return nil, &provider.Error{Provider: name, Stage: provider.StageUnavailable, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := runFunc(ctx, t.binary, buildArgs(tags, path))
	if err != nil {
		return nil, &provider.Error{Provider: name, Stage: provider.StageExec, Err: err}
	}

	parsed, err := parseOutput(out)
	if err != nil {
		return nil, &provider.Error{Provider: name, Stage: provider.StageDecode, Err: err}
	}
	return parsed, nil
}

func buildArgs(tags []string, path string) []string {
	args := make([]string, 0, len(tags)+2)
	args = append(args, "-json")
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		args = append(args, "-"+tag)
	}
	return append(args, path)
}

func run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// parseOutput 解析 `exiftool -json` 的输出：单文件调用产出长度为 1 的数组。
// 值扁平化为字符串；SourceFile 是路径衍生标签，丢弃。
func parseOutput(out []byte) (domain.Tags, error) {
	var arr []map[string]any
	if err := json.Unmarshal(out, &arr); err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("输出为空数组")
	}

	raw := arr[0]
	tags := make(domain.Tags, len(raw))
	for k, v := range raw {
		if k == "SourceFile" {
			continue
		}
		tags[k] = flatten(v)
	}
	return tags, nil
}

func flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, flatten(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}
