package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/DVO/internal/domain"
	"github.com/John-Robertt/DVO/internal/times"
)

// ScanInbox 枚举 inbox 的顶层条目（不递归），按名字排序后返回。
//
// 规则（硬约束）：
// - 只看顶层：子目录作为整体条目返回，不深入
// - 扫描阶段只做 lstat（DirEntry.Info），不读文件内容
// - Birth 缺失（平台不支持）不是错误，置零即可
//
// 注意：枚举与 stat 之间条目可能消失；消失的条目当作从未存在，
// 不计入结果也不报错。
func ScanInbox(root string) ([]domain.FileEntry, error) {
	root = filepath.Clean(root)

	des, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.FileEntry, 0, len(des))
	for _, d := range des {
		name := d.Name()
		abs := filepath.Join(root, name)

		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		entries = append(entries, domain.FileEntry{
			AbsPath: abs,
			Name:    name,
			Ext:     strings.ToLower(filepath.Ext(name)),
			Size:    info.Size(),
			Dir:     info.IsDir(),
			Regular: info.Mode().IsRegular(),
			Hidden:  strings.HasPrefix(name, "."),
			ModTime: info.ModTime(),
			Birth:   times.Birth(abs, info),
		})
	}

	// 强制稳定输出，避免不同平台/文件系统枚举顺序差异带来的不确定性。
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
