package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		Inbox:      "/abs/inbox",
		Vault:      "/abs/vault",
		DryRun:     true,
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []ItemResult{
			{Src: "/abs/inbox/b.mp3", Status: StatusSkipped, Reason: ReasonExists},
			{Src: "", Status: StatusFailed}, // 合成项（setup 阶段产生）
			{Src: "/abs/inbox/a.jpg", Status: StatusWouldMove},
			{Src: "/abs/inbox/c", Status: StatusIgnored, Reason: ReasonDirectory},
		},
	}

	r.Finalize()

	// Src=="" 必须排在最后；其余按字典序（SliceStable）。
	got := []string{r.Items[0].Src, r.Items[1].Src, r.Items[2].Src, r.Items[3].Src}
	if got[0] != "/abs/inbox/a.jpg" || got[1] != "/abs/inbox/b.mp3" || got[2] != "/abs/inbox/c" || got[3] != "" {
		t.Fatalf("items 排序不符合契约：%v", got)
	}
	// would_move 计入 Moved 桶，保证干跑与实跑汇总可对比。
	if r.Summary.Moved != 1 || r.Summary.Skipped != 1 || r.Summary.Failed != 1 || r.Summary.Ignored != 1 {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	if len(b) == 0 || !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}

func TestTags_Helpers(t *testing.T) {
	tags := Tags{
		"Artist":     "  Someone ",
		"Album":      "   ",
		"PageCount":  "12",
		"ImageWidth": "wide",
	}

	if got := tags.Get("Artist"); got != "Someone" {
		t.Fatalf("Get 应去除空白：%q", got)
	}
	if !tags.Has("Artist") || tags.Has("Album") || tags.Has("Missing") {
		t.Fatalf("Has 对空白/缺失标签判断错误")
	}
	if n, ok := tags.Int("PageCount"); !ok || n != 12 {
		t.Fatalf("Int 解析失败：%d %v", n, ok)
	}
	if _, ok := tags.Int("ImageWidth"); ok {
		t.Fatalf("Int 对非数值应返回 false")
	}
}

func TestCategories_ClosedSet(t *testing.T) {
	seen := map[Category]bool{}
	for _, c := range Categories() {
		if seen[c] {
			t.Fatalf("分类重复：%s", c)
		}
		seen[c] = true
		if !ValidCategory(string(c)) {
			t.Fatalf("枚举成员未通过校验：%s", c)
		}
	}
	if ValidCategory("documents/unknown") || ValidCategory("") {
		t.Fatalf("封闭枚举不应接受未知分类")
	}
}
