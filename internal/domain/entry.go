package domain

import (
	"strings"
	"time"
)

// FileEntry 描述一次扫描得到的收件箱条目（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Ext 必须是小写且带前导点；无扩展名时为 ""
// - Birth 为零值表示平台未暴露创建时间
type FileEntry struct {
	AbsPath string
	Name    string // base name, "IMG_1234.jpg"
	Ext     string // ".jpg"
	Size    int64
	Dir     bool
	Regular bool // 普通文件；symlink/设备等两者皆否
	Hidden  bool
	ModTime time.Time
	Birth   time.Time
}

// Stem 返回去掉扩展名的文件名主干（"archive.tar.gz" -> "archive.tar"）。
func (e FileEntry) Stem() string {
	return strings.TrimSuffix(e.Name, e.Ext)
}
