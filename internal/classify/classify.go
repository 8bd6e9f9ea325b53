package classify

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/DVO/internal/domain"
)

// needs 是歧义扩展名的分发表：这些扩展名的最终分类取决于元数据/内容，
// Decision.Category 充当提取失败时的兜底。叠加规则不得改写这张表。
var needs = map[string]domain.Decision{
	".png":  {Category: domain.CatScreenshots, Need: domain.NeedPNG},
	".pdf":  {Category: domain.CatDocsGeneral, Need: domain.NeedPDF},
	".html": {Category: domain.CatBookmarks, Need: domain.NeedHTML},
	".htm":  {Category: domain.CatBookmarks, Need: domain.NeedHTML},

	".mp3":  {Category: domain.CatAudioMusic, Need: domain.NeedAudio},
	".m4a":  {Category: domain.CatAudioMusic, Need: domain.NeedAudio},
	".flac": {Category: domain.CatAudioMusic, Need: domain.NeedAudio},
	".wav":  {Category: domain.CatAudioMusic, Need: domain.NeedAudio},
	".aac":  {Category: domain.CatAudioMusic, Need: domain.NeedAudio},
	".ogg":  {Category: domain.CatAudioMusic, Need: domain.NeedAudio},
	".wma":  {Category: domain.CatAudioMusic, Need: domain.NeedAudio},
}

// secretNames 按名字命中的机密文件（仅当扩展名兜底为 other 时参与判定）。
var secretNames = []string{"id_rsa", "id_ed25519", "known_hosts"}

// Table 是扩展名到判定的全量映射（构造后只读）。
type Table struct {
	fixed map[string]domain.Category
}

func defaultFixed() map[string]domain.Category {
	m := make(map[string]domain.Category, 96)
	add := func(cat domain.Category, exts ...string) {
		for _, e := range exts {
			m[e] = cat
		}
	}

	add(domain.CatPhotosRaw, ".nef", ".arw", ".cr2", ".cr3", ".raw", ".dng")
	add(domain.CatPhotosJPG, ".jpg", ".jpeg", ".heic")
	add(domain.CatImages, ".ico", ".icns", ".svg", ".gif", ".bmp", ".tiff", ".webp")
	add(domain.CatVideos, ".mp4", ".mov", ".avi", ".mpg", ".mpeg", ".m4v", ".wmv", ".flv", ".webm", ".scc")
	add(domain.CatEbooks, ".epub", ".mobi", ".chm")
	add(domain.CatNotes, ".txt", ".md", ".markdown", ".rst")
	add(domain.CatMindmaps, ".mm")
	add(domain.CatDocsGeneral, ".doc", ".docx", ".rtf", ".odt", ".pages", ".xlsx", ".xls", ".numbers")
	add(domain.CatDev,
		".sh", ".bash", ".zsh", ".fish",
		".py", ".pyw", ".ipynb",
		".js", ".jsx", ".ts", ".tsx", ".css", ".scss", ".sass",
		".yml", ".yaml", ".json", ".xml", ".ini", ".conf", ".config", ".toml", ".env",
		".pl", ".rb", ".php", ".lua",
		".scpt", ".applescript")
	add(domain.CatCalendars, ".ics")
	// .key 归机密而非 Keynote 文稿：误把私钥当文档的代价远高于反过来。
	add(domain.CatSecrets, ".pem", ".pub", ".ssh", ".key", ".crt", ".kdb", ".kdbx")
	add(domain.CatArchives, ".zip", ".rar", ".7z", ".tar", ".gz", ".bz2")
	add(domain.CatFonts, ".ttf", ".otf", ".woff", ".woff2", ".eot", ".pfm", ".pfb", ".fon")

	return m
}

// NewTable 以默认映射为基础应用叠加规则（分类 -> 追加扩展名）。
//
// 约束：
// - 叠加只能增改固定映射，不得触碰歧义扩展名的分发
// - 叠加层自身的合法性（封闭枚举、'.' 前缀、跨分类唯一）由 config 校验
func NewTable(overlay map[domain.Category][]string) (*Table, error) {
	m := defaultFixed()
	for cat, exts := range overlay {
		for _, ext := range exts {
			if _, ambiguous := needs[ext]; ambiguous {
				return nil, fmt.Errorf("扩展名 %q 的分类依赖元数据，不允许叠加改写", ext)
			}
			m[ext] = cat
		}
	}
	return &Table{fixed: m}, nil
}

// ByExtension 是全函数：任何输入（含未知/空扩展名）都有判定，
// 未命中者落入 other，永不失败。
func (t *Table) ByExtension(ext string) domain.Decision {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if d, ok := needs[ext]; ok {
		return d
	}
	if c, ok := t.fixed[ext]; ok {
		return domain.Decision{Category: c}
	}
	return domain.Decision{Category: domain.CatOther}
}

// Classify 组合扩展名映射与机密文件名规则。仍是纯函数：不读内容、不做 I/O。
// 扩展名命中永远优先；名字规则只兜底无扩展名可依的情形（id_rsa、known_hosts）。
func (t *Table) Classify(e domain.FileEntry) domain.Decision {
	d := t.ByExtension(e.Ext)
	if d.Final() && d.Category == domain.CatOther && SecretName(e.Name) {
		return domain.Decision{Category: domain.CatSecrets}
	}
	return d
}

// SecretName 判断文件名是否命中机密名单（大小写不敏感的子串匹配）。
func SecretName(name string) bool {
	n := strings.ToLower(name)
	for _, s := range secretNames {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}
