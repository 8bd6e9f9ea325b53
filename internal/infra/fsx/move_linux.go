//go:build linux

package fsx

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// renameNoReplaceOS 用 renameat2(RENAME_NOREPLACE) 把存在性检查和 rename
// 合并成一次原子系统调用。
func renameNoReplaceOS(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return os.ErrExist
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EOPNOTSUPP):
		// 文件系统不支持 RENAME_NOREPLACE（部分 NFS/老内核）：退回 lstat+rename。
		return lstatRename(src, dst)
	default:
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
	}
}
