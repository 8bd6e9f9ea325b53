package domain

// Category 是金库内目标子目录的封闭枚举（形如 "photos/raw"）。
//
// 约束：分类必须全覆盖——任何扩展名都映射到且仅映射到一个 Category；
// CatOther 是兜底值，映射永远不会失败。
type Category string

const (
	CatPhotosRaw    Category = "photos/raw"
	CatPhotosJPG    Category = "photos/jpg"
	CatImages       Category = "images"
	CatScreenshots  Category = "images/screenshots"
	CatVideos       Category = "videos"
	CatAudioMusic   Category = "audio/music"
	CatAudioRecords Category = "audio/recordings"
	CatEbooks       Category = "documents/ebooks"
	CatNotes        Category = "documents/notes"
	CatMindmaps     Category = "documents/mindmaps"
	CatBookmarks    Category = "documents/bookmarks"
	CatDocsGeneral  Category = "documents/general"
	CatDev          Category = "dev"
	CatCalendars    Category = "calendars"
	CatSecrets      Category = "secrets"
	CatArchives     Category = "archives"
	CatFonts        Category = "fonts"
	CatOther        Category = "other"
)

// Categories 返回全部合法分类（稳定顺序，供规则校验与测试遍历）。
func Categories() []Category {
	return []Category{
		CatPhotosRaw, CatPhotosJPG, CatImages, CatScreenshots,
		CatVideos, CatAudioMusic, CatAudioRecords,
		CatEbooks, CatNotes, CatMindmaps, CatBookmarks, CatDocsGeneral,
		CatDev, CatCalendars, CatSecrets, CatArchives, CatFonts,
		CatOther,
	}
}

// ValidCategory 判断 s 是否属于封闭枚举。
func ValidCategory(s string) bool {
	for _, c := range Categories() {
		if Category(s) == c {
			return true
		}
	}
	return false
}

// Need 标记扩展名分类无法独立判定、需要元数据或内容探测的歧义类别。
type Need string

const (
	NeedNone  Need = ""
	NeedAudio Need = "audio"
	NeedPDF   Need = "pdf"
	NeedPNG   Need = "png"
	NeedHTML  Need = "html"
)

// Decision 是扩展名分类的结果：要么定类（Need 为空），要么声明歧义。
// 歧义情形下 Category 同时充当元数据不可用时的兜底分类。
type Decision struct {
	Category Category
	Need     Need
}

// Final 报告该判定是否无需元数据即为最终结果。
func (d Decision) Final() bool { return d.Need == NeedNone }
