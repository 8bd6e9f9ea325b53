package classify

import (
	"context"
	"strings"

	"github.com/John-Robertt/DVO/internal/domain"
	"github.com/John-Robertt/DVO/internal/provider"
	"github.com/John-Robertt/DVO/internal/sniff"
)

// musicFields 中至少 2 项非空即判定为音乐，否则视为录音。
var musicFields = []string{"Artist", "Album", "Genre", "TrackNumber"}

// 电子书判定：页数下限、制作软件签名、标题/作者关键词。
const minEbookPages = 10

var ebookCreators = []string{
	"calibre", "adobe digital editions", "kindle", "ibooks",
	"google books", "pdf-xchange", "adobe indesign", "quartz", "prince",
}

var ebookKeywords = []string{"book", "edition", "volume", "chapter", "publication"}

// 截图判定：制作软件签名、常见屏幕分辨率（宽高同时不超过即命中）。
var screenshotSoftware = []string{
	"screenshot", "snagit", "lightshot", "grabber",
	"monosnap", "snipping tool", "screencapture",
}

var commonResolutions = [][2]int{
	{1920, 1080}, {2560, 1440}, {3840, 2160},
	{1280, 720}, {1366, 768}, {1440, 900},
	{1680, 1050}, {2880, 1800}, {3200, 1800},
}

// pdfFields 是电子书判定需要的标签集合。
var pdfFields = []string{"PageCount", "Creator", "Producer", "Title", "Author"}

// pngFields 是截图判定需要的标签集合。
var pngFields = []string{"Software", "ImageWidth", "ImageHeight"}

// Sniffer 抽象内容探测，便于测试替换真实文件读取。
type Sniffer interface {
	Bookmark(path string) (bool, error)
	PNGDimensions(path string) (int, int, error)
}

// FileSniffer 读真实文件内容，是运行时的默认实现。
type FileSniffer struct{}

func (FileSniffer) Bookmark(path string) (bool, error) { return sniff.Bookmark(path) }

func (FileSniffer) PNGDimensions(path string) (int, int, error) { return sniff.PNGDimensions(path) }

// Disambiguator 把 NeedsMetadata 判定消解为最终分类。
//
// 约束：
// - 提取失败绝不上抛：落回判定自带的兜底分类，并以 note 说明降级
// - 只依赖标签与文件内容，绝不依赖文件名/路径
type Disambiguator struct {
	Provider provider.MetadataProvider
	Sniffer  Sniffer
}

// Resolve 返回最终分类；note 非空表示发生了降级，值得在报告里展示。
func (d *Disambiguator) Resolve(ctx context.Context, e domain.FileEntry, dec domain.Decision) (domain.Category, string) {
	switch dec.Need {
	case domain.NeedAudio:
		return d.audio(ctx, e, dec)
	case domain.NeedPDF:
		return d.pdf(ctx, e, dec)
	case domain.NeedPNG:
		return d.png(ctx, e, dec)
	case domain.NeedHTML:
		return d.html(e, dec)
	default:
		return dec.Category, ""
	}
}

func (d *Disambiguator) audio(ctx context.Context, e domain.FileEntry, dec domain.Decision) (domain.Category, string) {
	tags, err := d.Provider.Fetch(ctx, e.AbsPath, musicFields)
	if err != nil {
		return dec.Category, "元数据不可用，按音乐归档：" + err.Error()
	}
	n := 0
	for _, f := range musicFields {
		if tags.Has(f) {
			n++
		}
	}
	if n >= 2 {
		return domain.CatAudioMusic, ""
	}
	return domain.CatAudioRecords, ""
}

func (d *Disambiguator) pdf(ctx context.Context, e domain.FileEntry, dec domain.Decision) (domain.Category, string) {
	tags, err := d.Provider.Fetch(ctx, e.AbsPath, pdfFields)
	if err != nil {
		return dec.Category, "元数据不可用，按普通文档归档：" + err.Error()
	}
	if pages, ok := tags.Int("PageCount"); ok && pages >= minEbookPages {
		return domain.CatEbooks, ""
	}
	creator := strings.ToLower(tags.Get("Creator"))
	producer := strings.ToLower(tags.Get("Producer"))
	for _, c := range ebookCreators {
		if strings.Contains(creator, c) || strings.Contains(producer, c) {
			return domain.CatEbooks, ""
		}
	}
	title := strings.ToLower(tags.Get("Title"))
	author := strings.ToLower(tags.Get("Author"))
	for _, k := range ebookKeywords {
		if strings.Contains(title, k) || strings.Contains(author, k) {
			return domain.CatEbooks, ""
		}
	}
	return domain.CatDocsGeneral, ""
}

func (d *Disambiguator) png(ctx context.Context, e domain.FileEntry, dec domain.Decision) (domain.Category, string) {
	tags, err := d.Provider.Fetch(ctx, e.AbsPath, pngFields)
	if err != nil {
		return dec.Category, "元数据不可用，按截图归档：" + err.Error()
	}
	software := strings.ToLower(tags.Get("Software"))
	if software != "" {
		for _, s := range screenshotSoftware {
			if strings.Contains(software, s) {
				return domain.CatScreenshots, ""
			}
		}
	}
	w, wok := tags.Int("ImageWidth")
	h, hok := tags.Int("ImageHeight")
	if !wok || !hok {
		// 标签缺尺寸时读 PNG 头补位，读不到就走兜底。
		pw, ph, perr := d.Sniffer.PNGDimensions(e.AbsPath)
		if perr != nil {
			return dec.Category, ""
		}
		w, h = pw, ph
	}
	for _, r := range commonResolutions {
		if w <= r[0] && h <= r[1] {
			return domain.CatScreenshots, ""
		}
	}
	return domain.CatImages, ""
}

func (d *Disambiguator) html(e domain.FileEntry, dec domain.Decision) (domain.Category, string) {
	ok, err := d.Sniffer.Bookmark(e.AbsPath)
	if err != nil {
		return dec.Category, "内容不可读，按书签归档：" + err.Error()
	}
	if ok {
		return domain.CatBookmarks, ""
	}
	return domain.CatDev, ""
}
