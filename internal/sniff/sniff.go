package sniff

import (
	"bytes"
	"image/png"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
)

// maxSample 是内容探测读取的上限；书签导出文件的特征都集中在头部。
const maxSample = 64 << 10

// Bookmark 判断 HTML 文件是否是浏览器书签导出。
//
// 判定依据（任一命中即是）：
// - NETSCAPE-Bookmark-file 标记（Netscape/Firefox/Chrome 的导出头）
// - 链接数 > 5
// - <dl>+<dt> 结构（Netscape 书签层级）
// - <ul>+<li> 结构且含链接
// 读取/解析失败返回 error，由调用方决定兜底分类。
func Bookmark(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sample, err := io.ReadAll(io.LimitReader(f, maxSample))
	if err != nil {
		return false, err
	}

	// DOCTYPE 不进 DOM 树，标记判断必须走原始字节。
	if bytes.Contains(bytes.ToUpper(sample), []byte("NETSCAPE-BOOKMARK-FILE")) {
		return true, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(sample))
	if err != nil {
		return false, err
	}

	links := doc.Find("a[href]").Length()
	if links > 5 {
		return true, nil
	}
	if doc.Find("dl").Length() > 0 && doc.Find("dt").Length() > 0 {
		return true, nil
	}
	if doc.Find("ul li").Length() > 0 && links > 0 {
		return true, nil
	}
	return false, nil
}

// PNGDimensions 只解码 PNG 头部取宽高，不读像素数据。
// 用于元数据提供方未给出尺寸标签时的补位。
func PNGDimensions(path string) (w, h int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
