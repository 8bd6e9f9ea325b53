//go:build darwin

package times

import (
	"os"
	"syscall"
	"time"
)

// birth 读取 APFS/HFS+ 的 st_birthtime。
func birth(_ string, info os.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}
	}
	ts := st.Birthtimespec
	if ts.Sec == 0 && ts.Nsec == 0 {
		return time.Time{}
	}
	return time.Unix(ts.Sec, ts.Nsec)
}
