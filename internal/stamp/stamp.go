package stamp

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/John-Robertt/DVO/internal/domain"
)

// Layout 是规范时间戳的格式（本地时区，零填充）。
const Layout = "20060102-150405"

// 历史上各类设备/工具留下的时间戳形态。命中任意一条即视为“已带时间戳”，
// 不再追加后缀（幂等保证）。
// 注意：search 语义，子串命中即可，不做锚定。
var stampREs = []*regexp.Regexp{
	regexp.MustCompile(`\d{8}-\d{6}`),             // 20241208-082255
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}-\d{6}`), // 2024-12-08-082255
	regexp.MustCompile(`\d{8}_\d{6}`),             // 20241208_082255
	regexp.MustCompile(`\d{4}_\d{2}_\d{2}_\d{6}`), // 2024_12_08_082255
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{6}`), // 2024-12-08_082255
	regexp.MustCompile(`\d{4}_\d{2}_\d{2}-\d{6}`), // 2024_12_08-082255
	regexp.MustCompile(`\d{4}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])[-_]\d{6}`),
	regexp.MustCompile(`\d{4}[-_](?:0[1-9]|1[0-2])[-_](?:0[1-9]|[12]\d|3[01])[-_]\d{6}`),
}

// embeddedRE 匹配 name_20120212-115330.zip 形态（仅用作时间来源提取）。
var embeddedRE = regexp.MustCompile(`_(\d{8}-\d{6})\.`)

// HasStamp 判断（已规范化的）主干是否已带可识别时间戳。
func HasStamp(stem string) bool {
	for _, re := range stampREs {
		if re.MatchString(stem) {
			return true
		}
	}
	return false
}

// Embedded 从完整文件名中提取 `_YYYYMMDD-HHMMSS.` 时间戳。
// 解析失败（如非法月份）视为没有，由调用方回退其他来源。
func Embedded(name string) (time.Time, bool) {
	m := embeddedRE.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(Layout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeStem 统一主干形态：Unicode NFC + 空格转连字符。
// macOS 拷来的文件名常是 NFD，必须先归一再做模式判断。
func NormalizeStem(stem string) string {
	stem = norm.NFC.String(stem)
	return strings.ReplaceAll(stem, " ", "-")
}

// Source 选择条目的时间来源，优先级固定：
// 1) 文件名内嵌时间戳 2) 创建时间 3) 修改时间
func Source(e domain.FileEntry) time.Time {
	if t, ok := Embedded(e.Name); ok {
		return t
	}
	if !e.Birth.IsZero() {
		return e.Birth
	}
	return e.ModTime
}

// Resolve 计算条目的最终文件名：规范化主干后，已带时间戳则原样返回
// （幂等）；否则追加 `_YYYYMMDD-HHMMSS`。冲突处理不在此层。
func Resolve(e domain.FileEntry) string {
	stem := NormalizeStem(e.Stem())
	if HasStamp(stem) {
		return stem + e.Ext
	}
	return stem + "_" + Source(e).Format(Layout) + e.Ext
}
