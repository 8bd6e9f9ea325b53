// Package lock 以金库目录下的锁文件保证单实例运行。
//
// 约束：
// - 非阻塞获取：锁被占用立即失败，绝不等待
// - dry-run 不取锁（建锁文件本身就是对金库的改动），由调用方保证
package lock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName 是锁文件在金库根下的固定名字。
const FileName = ".dvo.lock"

// ErrHeld 表示锁已被其他进程持有。
var ErrHeld = errors.New("锁已被其他进程持有")

// Guard 持有已获取的金库锁。
type Guard struct {
	fl *flock.Flock
}

// Acquire 在 vault 根下建立锁文件并尝试非阻塞独占锁。
// 被占用时返回包着 ErrHeld 的错误；建立锁文件失败时返回底层 I/O 错误。
func Acquire(vault string) (*Guard, error) {
	path := filepath.Join(vault, FileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("建立锁文件失败：%q：%w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%q：%w", path, ErrHeld)
	}
	return &Guard{fl: fl}, nil
}

// Path 返回锁文件路径。
func (g *Guard) Path() string { return g.fl.Path() }

// Release 释放锁。锁文件本身保留（下次运行复用）。
func (g *Guard) Release() error {
	if g == nil || g.fl == nil {
		return nil
	}
	return g.fl.Unlock()
}
