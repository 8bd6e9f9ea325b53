package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/DVO/internal/domain"
)

// loadRules 读取分类规则叠加文件（YAML：分类 -> 追加扩展名列表）。
//
// 校验：
// - 分类必须属于封闭枚举
// - 扩展名必须以 '.' 开头且非空；统一转小写
// - 同一扩展名不允许被多个分类声明（否则映射不再确定）
// 歧义扩展名（.png/.pdf/.html/音频等）的改写保护由 classify 构表时执行。
func loadRules(cwd, path string) (map[domain.Category][]string, error) {
	p, err := expandPath(cwd, path)
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Path: p, Err: os.ErrNotExist}
		}
		return nil, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
	}

	out := make(map[domain.Category][]string, len(raw))
	claimed := make(map[string]string)
	for cat, exts := range raw {
		if !domain.ValidCategory(cat) {
			return nil, &Error{Code: ErrCodeInvalid, Path: p, Err: fmt.Errorf("未知分类 %q", cat)}
		}
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if len(e) < 2 || !strings.HasPrefix(e, ".") {
				return nil, &Error{Code: ErrCodeInvalid, Path: p, Err: fmt.Errorf("分类 %q 的扩展名 %q 必须以 '.' 开头", cat, e)}
			}
			if prev, ok := claimed[e]; ok && prev != cat {
				return nil, &Error{Code: ErrCodeInvalid, Path: p, Err: fmt.Errorf("扩展名 %q 被 %q 与 %q 重复声明", e, prev, cat)}
			}
			claimed[e] = cat
			out[domain.Category(cat)] = append(out[domain.Category(cat)], e)
		}
	}
	for _, exts := range out {
		sort.Strings(exts)
	}
	return out, nil
}
