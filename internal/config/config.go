package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/DVO/internal/domain"
)

const (
	// ErrCodeNotFound 表示显式指定的 --config 或 rules 文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultInbox / DefaultVault 是两条路径的内置默认值（支持 ~ 展开）。
	DefaultInbox = "~/inbox"
	DefaultVault = "~/digital_vault"

	// DefaultExiftool 是元数据提取工具的默认可执行名（按 PATH 查找）。
	DefaultExiftool = "exiftool"
	// DefaultExiftoolTimeoutSeconds 是单次提取的超时默认值。
	DefaultExiftoolTimeoutSeconds = 20
)

const (
	// EnvInbox / EnvVault 是环境变量层（flags > env > file > 默认）。
	EnvInbox = "DVO_INBOX"
	EnvVault = "DVO_VAULT"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --dry-run=false 必须能覆盖 config.dry_run=true。
type CLIArgs struct {
	ConfigPath string
	RulesPath  string

	Inbox string
	Vault string

	DryRun    bool
	DryRunSet bool

	Verbose    bool
	VerboseSet bool

	DateDirs    bool
	DateDirsSet bool

	ArchiveDirs    bool
	ArchiveDirsSet bool

	CleanHidden    bool
	CleanHiddenSet bool
}

// FileConfig 对应 dvo.toml 的解析结构。
type FileConfig struct {
	Inbox string `toml:"inbox"`
	Vault string `toml:"vault"`
	Rules string `toml:"rules"`

	DryRun      *bool `toml:"dry_run"`
	Verbose     *bool `toml:"verbose"`
	DateDirs    *bool `toml:"date_dirs"`
	ArchiveDirs *bool `toml:"archive_dirs"`
	CleanHidden *bool `toml:"clean_hidden"`

	Exiftool               string `toml:"exiftool"`
	ExiftoolTimeoutSeconds int    `toml:"exiftool_timeout_seconds"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Inbox string
	Vault string

	DryRun      bool
	Verbose     bool
	DateDirs    bool
	ArchiveDirs bool
	CleanHidden bool

	Exiftool        string
	ExiftoolTimeout time.Duration

	// Rules 是可选的分类规则叠加层（固定分类 -> 追加扩展名），
	// 已通过封闭枚举校验；歧义扩展名的保护在 classify 构表时执行。
	Rules map[domain.Category][]string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按固定顺序发现并读取配置文件，然后与环境变量、CLI 参数
// 合并为最终配置。
//
// 发现规则（固定）：
// 1) --config 显式给出：该文件必须存在且可解析
// 2) ~/.config/dvo/config.toml 存在则读取
// 3) <cwd>/dvo.toml 存在则读取
// 4) 都不存在：仅用默认值（不报错）
//
// 覆盖优先级（固定）：
// - inbox/vault：CLI > 环境变量（DVO_INBOX/DVO_VAULT）> config > 默认
// - 布尔项：CLI 显式 > config > 默认 false
// - exiftool 相关：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath, exists, err := resolveConfigPath(cwdAbs, cli.ConfigPath)
	if err != nil {
		return EffectiveConfig{}, err
	}

	var fc FileConfig
	if exists {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if err := toml.Unmarshal(b, &fc); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwd string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// inbox/vault：CLI > env > config > 默认。
	inbox, err := pickPath(cwd, cli.Inbox, os.Getenv(EnvInbox), fc.Inbox, DefaultInbox)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("inbox 无效：%w", err)}
	}
	vault, err := pickPath(cwd, cli.Vault, os.Getenv(EnvVault), fc.Vault, DefaultVault)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("vault 无效：%w", err)}
	}
	if inbox == vault {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("inbox 与 vault 不能相同：%q", inbox)}
	}
	if nested(inbox, vault) || nested(vault, inbox) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("inbox 与 vault 不能互相嵌套：%q / %q", inbox, vault)}
	}

	ec := EffectiveConfig{
		Inbox:       inbox,
		Vault:       vault,
		DryRun:      pickBool(cli.DryRun, cli.DryRunSet, fc.DryRun),
		Verbose:     pickBool(cli.Verbose, cli.VerboseSet, fc.Verbose),
		DateDirs:    pickBool(cli.DateDirs, cli.DateDirsSet, fc.DateDirs),
		ArchiveDirs: pickBool(cli.ArchiveDirs, cli.ArchiveDirsSet, fc.ArchiveDirs),
		CleanHidden: pickBool(cli.CleanHidden, cli.CleanHiddenSet, fc.CleanHidden),
	}

	ec.Exiftool = strings.TrimSpace(fc.Exiftool)
	if ec.Exiftool == "" {
		ec.Exiftool = DefaultExiftool
	}

	secs := fc.ExiftoolTimeoutSeconds
	if secs == 0 {
		secs = DefaultExiftoolTimeoutSeconds
	}
	// 文档约定：范围建议 [1, 120]；超出截断。
	if secs < 1 {
		secs = 1
	}
	if secs > 120 {
		secs = 120
	}
	ec.ExiftoolTimeout = time.Duration(secs) * time.Second

	// rules：CLI > config；给出即必须存在且可解析。
	rulesPath := strings.TrimSpace(cli.RulesPath)
	if rulesPath == "" {
		rulesPath = strings.TrimSpace(fc.Rules)
	}
	if rulesPath != "" {
		rules, err := loadRules(cwd, rulesPath)
		if err != nil {
			return EffectiveConfig{}, err
		}
		ec.Rules = rules
	}

	return ec, nil
}

func pickBool(cliVal bool, cliSet bool, fileVal *bool) bool {
	if cliSet {
		return cliVal
	}
	if fileVal != nil {
		return *fileVal
	}
	return false
}

// pickPath 取第一个非空候选并做 ~ 展开 + 绝对化（相对路径以 cwd 为基准）。
func pickPath(cwd string, candidates ...string) (string, error) {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return expandPath(cwd, c)
		}
	}
	return "", fmt.Errorf("路径为空")
}

// nested 判断 child 是否位于 parent 之下（两者都已是 clean 绝对路径）。
func nested(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

func resolveConfigPath(cwd, explicit string) (string, bool, error) {
	if strings.TrimSpace(explicit) != "" {
		p, err := expandPath(cwd, explicit)
		if err != nil {
			return "", false, &Error{Code: ErrCodeInvalid, Path: explicit, Err: err}
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", false, &Error{Code: ErrCodeNotFound, Path: p, Err: os.ErrNotExist}
			}
			return "", false, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
		}
		if info.IsDir() {
			return "", false, &Error{Code: ErrCodeInvalid, Path: p, Err: fmt.Errorf("是目录而非文件")}
		}
		return p, true, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "dvo", "config.toml")
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true, nil
		}
	}

	p := filepath.Join(cwd, "dvo.toml")
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p, true, nil
	}

	return "", false, nil
}

// expandPath 把 ~ 前缀展开为用户主目录，相对路径以 base 为基准，
// 最后统一 Clean + 绝对化。
func expandPath(base, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("路径为空")
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("解析主目录失败：%w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && p[1] == '/' {
			p = filepath.Join(home, p[2:])
		}
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Clean(filepath.Join(base, p)), nil
}
