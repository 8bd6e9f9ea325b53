package stamp

import (
	"testing"
	"time"

	"github.com/John-Robertt/DVO/internal/domain"
)

func TestResolve_AppendsStamp(t *testing.T) {
	e := domain.FileEntry{
		Name:    "IMG_1234.jpg",
		Ext:     ".jpg",
		ModTime: time.Date(2024, 12, 20, 19, 51, 10, 0, time.Local),
	}
	if got := Resolve(e); got != "IMG_1234_20241220-195110.jpg" {
		t.Fatalf("期望 IMG_1234_20241220-195110.jpg，实际 %q", got)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	e := domain.FileEntry{
		Name:    "notes_20241220-195110.md",
		Ext:     ".md",
		ModTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
	}
	if got := Resolve(e); got != "notes_20241220-195110.md" {
		t.Fatalf("已带时间戳的文件名必须原样返回，实际 %q", got)
	}
}

func TestHasStamp_LegacyVariants(t *testing.T) {
	// 历史形态命中任意一条都必须抑制再次打戳。
	stamped := []string{
		"x_20241208-082255",
		"shot-2024-12-08-082255",
		"x_20241208_082255",
		"x_2024_12_08_082255",
		"x_2024-12-08_082255",
		"x_2024_12_08-082255",
	}
	for _, s := range stamped {
		if !HasStamp(s) {
			t.Fatalf("%q 应识别为已带时间戳", s)
		}
	}

	for _, s := range []string{"IMG_1234", "report-2024", "v20241208"} {
		if HasStamp(s) {
			t.Fatalf("%q 不应识别为已带时间戳", s)
		}
	}
}

func TestNormalizeStem_SpacesAndNFC(t *testing.T) {
	if got := NormalizeStem("my holiday photo"); got != "my-holiday-photo" {
		t.Fatalf("空格应转连字符，实际 %q", got)
	}
	// "café" 的 NFD 形态（e + U+0301）必须归一为 NFC。
	nfd := "café"
	if got := NormalizeStem(nfd); got != "café" {
		t.Fatalf("NFC 归一失败：%q", got)
	}
}

func TestEmbedded_ParseAndReject(t *testing.T) {
	got, ok := Embedded("backup_20120212-115330.zip")
	if !ok {
		t.Fatalf("应提取到内嵌时间戳")
	}
	want := time.Date(2012, 2, 12, 11, 53, 30, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}

	// 非法月份：匹配但解析失败，视为没有。
	if _, ok := Embedded("backup_20121312-115330.zip"); ok {
		t.Fatalf("非法日期不应被接受")
	}
	// 缺少下划线/点边界：不匹配。
	if _, ok := Embedded("20120212-115330"); ok {
		t.Fatalf("缺少边界的形态不应被接受")
	}
}

func TestSource_Priority(t *testing.T) {
	birth := time.Date(2023, 5, 1, 8, 0, 0, 0, time.Local)
	mod := time.Date(2024, 6, 2, 9, 30, 0, 0, time.Local)

	// 内嵌时间戳优先于一切。
	e := domain.FileEntry{Name: "a_20220101-120000.txt", Birth: birth, ModTime: mod}
	if got := Source(e); !got.Equal(time.Date(2022, 1, 1, 12, 0, 0, 0, time.Local)) {
		t.Fatalf("内嵌时间戳应优先：%v", got)
	}

	// 无内嵌：创建时间优先于修改时间。
	e = domain.FileEntry{Name: "a.txt", Birth: birth, ModTime: mod}
	if got := Source(e); !got.Equal(birth) {
		t.Fatalf("创建时间应优先：%v", got)
	}

	// 创建时间缺失：回退修改时间。
	e = domain.FileEntry{Name: "a.txt", ModTime: mod}
	if got := Source(e); !got.Equal(mod) {
		t.Fatalf("应回退修改时间：%v", got)
	}
}
