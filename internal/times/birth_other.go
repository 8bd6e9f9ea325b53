//go:build !linux && !darwin

package times

import (
	"os"
	"time"
)

// birth 在其余平台上不读取创建时间，统一返回零值（调用方回退 mtime）。
func birth(_ string, _ os.FileInfo) time.Time { return time.Time{} }
