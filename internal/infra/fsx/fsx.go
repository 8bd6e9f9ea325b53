package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// 平台相关的 no-replace rename 经由函数变量注入，测试可稳定模拟 EXDEV 等错误。
var renameNoReplace = renameNoReplaceOS

// EnsureDir 建立目录（含父目录），已存在时幂等。
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// MoveNoOverwrite 把 src 移动为 dst。
//
// 约束：
// - 目标已存在时返回 os.ErrExist，绝不覆盖（含 rename 的竞态窗口）
// - 同盘走 rename；跨盘（EXDEV）降级为复制+删除，保留权限与修改时间
// - 复制路径用 O_EXCL 建目标并 fsync，失败时清理半成品
func MoveNoOverwrite(src, dst string) error {
	if err := renameNoReplace(src, dst); err != nil {
		if isEXDEV(err) {
			return copyMove(src, dst)
		}
		return err
	}
	_ = syncDirBestEffort(filepath.Dir(dst))
	return nil
}

// isEXDEV 判断 err 是否跨盘 rename 失败（os.LinkError 会被 errors.Is 解包）。
func isEXDEV(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// lstat+rename 是没有原子 no-replace rename 可用时的退路，存在竞态窗口。
func lstatRename(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return os.ErrExist
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}

func copyMove(src, dst string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("跨盘复制只支持常规文件：%q", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return os.ErrExist
		}
		return err
	}
	if err := out.Chmod(fi.Mode().Perm()); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	// 修改时间尽量保留；失败不致命。
	_ = os.Chtimes(dst, fi.ModTime(), fi.ModTime())
	_ = syncDirBestEffort(filepath.Dir(dst))

	// 源删除失败时目标已就位：上抛错误让调用方记录，不做回滚。
	return os.Remove(src)
}

func syncDirBestEffort(dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
