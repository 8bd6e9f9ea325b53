// Package times 提供跨平台的文件创建时间读取。
package times

import (
	"os"
	"time"
)

// Birth 返回 path 的创建时间；平台或文件系统不支持时返回零值，
// 由调用方回退到修改时间。info 必须来自同一 path 的 Lstat。
func Birth(path string, info os.FileInfo) time.Time {
	return birth(path, info)
}
