// Package archive 把收件箱里的目录打包成 zip，交给常规落位流程归入档案分类。
//
// 约束：
// - 成员只收常规文件；路径中任一段以 '.' 开头的整体排除（.git 等遗留物不进档案）
// - 成员保留修改时间与权限位；zip 文件自身的修改时间设为目录的时间来源
// - 任何失败都清理半成品 zip，源目录原样保留
package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/DVO/internal/stamp"
)

// ZipName 计算目录的档案名：目录名已带时间戳则不再追加。
func ZipName(dirName string, ts time.Time) string {
	stem := stamp.NormalizeStem(dirName)
	if stamp.HasStamp(stem) {
		return stem + ".zip"
	}
	return stem + "_" + ts.Format(stamp.Layout) + ".zip"
}

// ZipDir 把 dir 打包为同级的 zip 并返回其路径。大目录可通过 ctx 中断。
func ZipDir(ctx context.Context, dir string, ts time.Time) (string, error) {
	dst := filepath.Join(filepath.Dir(dir), ZipName(filepath.Base(dir), ts))

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	if err := writeMembers(ctx, f, dir); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}

	// zip 自身的修改时间对齐目录的时间来源；失败不致命。
	_ = os.Chtimes(dst, ts, ts)
	return dst, nil
}

func writeMembers(ctx context.Context, f *os.File, dir string) error {
	w := zip.NewWriter(f)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if hiddenComponent(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		mw, err := w.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(mw, src)
		src.Close()
		return err
	})
	if err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// hiddenComponent 判断相对路径里是否有以 '.' 开头的路径段。
func hiddenComponent(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
