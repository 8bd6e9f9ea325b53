//go:build !linux

package fsx

func renameNoReplaceOS(src, dst string) error {
	return lstatRename(src, dst)
}
