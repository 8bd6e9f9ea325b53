package domain

import (
	"strconv"
	"strings"
)

// Tags 是元数据提供方为单个文件产出的标签表（标签名 -> 字符串值）。
//
// 约束：标签缺失绝不中断分类；取值判断一律 Trim 后比较。
type Tags map[string]string

// Get 返回去除首尾空白后的标签值；缺失返回 ""。
func (t Tags) Get(name string) string {
	return strings.TrimSpace(t[name])
}

// Has 判断标签存在且非空白。
func (t Tags) Has(name string) bool { return t.Get(name) != "" }

// Int 解析整数标签；缺失或不可解析返回 0,false。
func (t Tags) Int(name string) (int, bool) {
	v := t.Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
