//go:build linux

package times

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// birth 通过 statx 读取 btime。内核或文件系统不支持 STATX_BTIME 时返回零值。
func birth(path string, _ os.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}
	}
	if stx.Btime.Sec == 0 && stx.Btime.Nsec == 0 {
		return time.Time{}
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
