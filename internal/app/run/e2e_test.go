package run

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/John-Robertt/DVO/internal/config"
	"github.com/John-Robertt/DVO/internal/domain"
	"github.com/John-Robertt/DVO/internal/infra/lock"
)

// stubProvider 按文件名返回固定标签，避免测试依赖真实 exiftool。
type stubProvider struct {
	tags map[string]domain.Tags
	err  error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Fetch(_ context.Context, path string, _ []string) (domain.Tags, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.tags[filepath.Base(path)], nil
}

func seed(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
	return path
}

func itemBySrc(t *testing.T, rr domain.RunReport, src string) domain.ItemResult {
	t.Helper()
	for _, it := range rr.Items {
		if it.Src == src {
			return it
		}
	}
	t.Fatalf("报告缺少条目：%q\n%+v", src, rr.Items)
	return domain.ItemResult{}
}

func TestExecute_LiveRun_MovesByCategory(t *testing.T) {
	inbox := t.TempDir()
	vault := t.TempDir()

	note := seed(t, inbox, "meeting notes.txt", "agenda")
	song := seed(t, inbox, "song.mp3", "ID3")
	photo := seed(t, inbox, "IMG_0042.jpeg", "jpegdata")
	ds := seed(t, inbox, ".DS_Store", "junk")
	proj := filepath.Join(inbox, "project")
	seed(t, inbox, filepath.Join("project", "main.go"), "package main")

	p := stubProvider{tags: map[string]domain.Tags{
		"song.mp3": {"Artist": "Ada", "Album": "Loops"},
	}}
	r := &Runner{Cfg: config.EffectiveConfig{Inbox: inbox, Vault: vault}, Provider: p}
	rr, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if rr.Summary.Moved != 3 || rr.Summary.Ignored != 2 || rr.Summary.Failed != 0 {
		t.Fatalf("汇总不符：%+v\n%+v", rr.Summary, rr.Items)
	}

	// 笔记：空格归一成连字符并追加时间戳。
	it := itemBySrc(t, rr, note)
	if it.Status != domain.StatusMoved || it.Category != "notes" {
		t.Fatalf("笔记条目不符：%+v", it)
	}
	noteRE := regexp.MustCompile(`^meeting-notes_\d{8}-\d{6}\.txt$`)
	if !noteRE.MatchString(filepath.Base(it.Dst)) {
		t.Fatalf("笔记目标名不符：%q", it.Dst)
	}
	if filepath.Dir(it.Dst) != filepath.Join(vault, "notes") {
		t.Fatalf("笔记目标目录不符：%q", it.Dst)
	}
	if _, err := os.Stat(it.Dst); err != nil {
		t.Fatalf("笔记未落位：%v", err)
	}

	// 音频：双标签判音乐。
	it = itemBySrc(t, rr, song)
	if it.Category != "audio/music" || it.Status != domain.StatusMoved {
		t.Fatalf("音频条目不符：%+v", it)
	}

	// 照片：固定映射，不触发元数据提取。
	it = itemBySrc(t, rr, photo)
	if it.Category != "photos/jpg" || it.Status != domain.StatusMoved {
		t.Fatalf("照片条目不符：%+v", it)
	}

	// 隐藏文件与目录默认不动。
	if it = itemBySrc(t, rr, ds); it.Status != domain.StatusIgnored || it.Reason != domain.ReasonHidden {
		t.Fatalf("隐藏条目不符：%+v", it)
	}
	if it = itemBySrc(t, rr, proj); it.Status != domain.StatusIgnored || it.Reason != domain.ReasonDirectory {
		t.Fatalf("目录条目不符：%+v", it)
	}
	if _, err := os.Stat(ds); err != nil {
		t.Fatalf("隐藏文件不应被动：%v", err)
	}
	if _, err := os.Stat(proj); err != nil {
		t.Fatalf("目录不应被动：%v", err)
	}

	// 锁已释放：紧接的第二次实跑可以开始。
	rr2, err := (&Runner{Cfg: r.Cfg, Provider: p}).Execute(context.Background())
	if err != nil {
		t.Fatalf("第二次实跑应可获取锁：%v", err)
	}
	if rr2.RunID == rr.RunID {
		t.Fatal("run_id 应每次唯一")
	}
}

func TestExecute_DryRun_TouchesNothing(t *testing.T) {
	inbox := t.TempDir()
	vault := filepath.Join(t.TempDir(), "vault") // 故意不存在

	note := seed(t, inbox, "a.txt", "x")
	r := &Runner{
		Cfg:      config.EffectiveConfig{Inbox: inbox, Vault: vault, DryRun: true},
		Provider: stubProvider{},
	}
	rr, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	it := itemBySrc(t, rr, note)
	if it.Status != domain.StatusWouldMove || it.Dst == "" {
		t.Fatalf("期望 would_move：%+v", it)
	}
	if !rr.DryRun {
		t.Fatal("报告应标记 dry_run")
	}
	if _, err := os.Stat(note); err != nil {
		t.Fatalf("dry-run 不得动源文件：%v", err)
	}
	if _, err := os.Stat(vault); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不得建金库：%v", err)
	}
	// 汇总口径：would_move 计入 moved 桶。
	if rr.Summary.Moved != 1 {
		t.Fatalf("汇总不符：%+v", rr.Summary)
	}
}

func TestExecute_SetupErrors(t *testing.T) {
	t.Run("收件箱缺失", func(t *testing.T) {
		r := &Runner{
			Cfg:      config.EffectiveConfig{Inbox: filepath.Join(t.TempDir(), "nope"), Vault: t.TempDir()},
			Provider: stubProvider{},
		}
		_, err := r.Execute(context.Background())
		if SetupCode(err) != domain.ErrCodeInboxMissing {
			t.Fatalf("期望 inbox_missing：%v", err)
		}
	})

	t.Run("金库被文件占用", func(t *testing.T) {
		inbox := t.TempDir()
		vault := seed(t, t.TempDir(), "vault", "not a dir")
		r := &Runner{Cfg: config.EffectiveConfig{Inbox: inbox, Vault: vault}, Provider: stubProvider{}}
		_, err := r.Execute(context.Background())
		if SetupCode(err) != domain.ErrCodeVaultUnusable {
			t.Fatalf("期望 vault_unusable：%v", err)
		}
	})

	t.Run("锁被占用", func(t *testing.T) {
		inbox := t.TempDir()
		vault := t.TempDir()
		g, err := lock.Acquire(vault)
		if err != nil {
			t.Fatalf("预占锁失败：%v", err)
		}
		defer g.Release()

		r := &Runner{Cfg: config.EffectiveConfig{Inbox: inbox, Vault: vault}, Provider: stubProvider{}}
		_, err = r.Execute(context.Background())
		if SetupCode(err) != domain.ErrCodeLockHeld {
			t.Fatalf("期望 lock_held：%v", err)
		}
	})

	t.Run("叠加规则改写歧义扩展名", func(t *testing.T) {
		r := &Runner{
			Cfg: config.EffectiveConfig{
				Inbox: t.TempDir(),
				Vault: t.TempDir(),
				Rules: map[domain.Category][]string{domain.CatDev: {".png"}},
			},
			Provider: stubProvider{},
		}
		_, err := r.Execute(context.Background())
		if SetupCode(err) != domain.ErrCodeConfigInvalid {
			t.Fatalf("期望 config_invalid：%v", err)
		}
	})
}

func TestExecute_ArchiveDirs(t *testing.T) {
	inbox := t.TempDir()
	vault := t.TempDir()
	proj := filepath.Join(inbox, "project")
	seed(t, inbox, filepath.Join("project", "main.go"), "package main")
	seed(t, inbox, filepath.Join("project", ".git", "HEAD"), "ref")

	r := &Runner{
		Cfg:      config.EffectiveConfig{Inbox: inbox, Vault: vault, ArchiveDirs: true},
		Provider: stubProvider{},
	}
	rr, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	it := itemBySrc(t, rr, proj)
	if it.Status != domain.StatusArchived || it.Category != "archives" {
		t.Fatalf("归档条目不符：%+v", it)
	}
	zipRE := regexp.MustCompile(`^project_\d{8}-\d{6}\.zip$`)
	if !zipRE.MatchString(filepath.Base(it.Dst)) {
		t.Fatalf("档案名不符：%q", it.Dst)
	}
	if _, err := os.Stat(proj); !os.IsNotExist(err) {
		t.Fatalf("归档后源目录应删除：%v", err)
	}

	zr, err := zip.OpenReader(it.Dst)
	if err != nil {
		t.Fatalf("读档案失败：%v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 || zr.File[0].Name != "main.go" {
		t.Fatalf("档案成员不符：%+v", zr.File)
	}
}

func TestExecute_ArchiveDirs_DryRunPlansOnly(t *testing.T) {
	inbox := t.TempDir()
	vault := t.TempDir()
	proj := filepath.Join(inbox, "project")
	seed(t, inbox, filepath.Join("project", "main.go"), "package main")

	r := &Runner{
		Cfg:      config.EffectiveConfig{Inbox: inbox, Vault: vault, ArchiveDirs: true, DryRun: true},
		Provider: stubProvider{},
	}
	rr, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	it := itemBySrc(t, rr, proj)
	if it.Status != domain.StatusWouldArchive || it.Dst == "" {
		t.Fatalf("期望 would_archive：%+v", it)
	}
	if _, err := os.Stat(proj); err != nil {
		t.Fatalf("dry-run 不得删目录：%v", err)
	}
	ents, err := os.ReadDir(inbox)
	if err != nil {
		t.Fatalf("读收件箱失败：%v", err)
	}
	for _, e := range ents {
		if filepath.Ext(e.Name()) == ".zip" {
			t.Fatalf("dry-run 不得落 zip：%q", e.Name())
		}
	}
}

func TestExecute_CleanHidden(t *testing.T) {
	inbox := t.TempDir()
	vault := t.TempDir()
	ds := seed(t, inbox, ".DS_Store", "junk")

	r := &Runner{
		Cfg:      config.EffectiveConfig{Inbox: inbox, Vault: vault, CleanHidden: true},
		Provider: stubProvider{},
	}
	rr, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	it := itemBySrc(t, rr, ds)
	if it.Status != domain.StatusCleaned {
		t.Fatalf("期望 cleaned：%+v", it)
	}
	if _, err := os.Stat(ds); !os.IsNotExist(err) {
		t.Fatalf("隐藏文件应删除：%v", err)
	}
	if rr.Summary.Cleaned != 1 {
		t.Fatalf("汇总不符：%+v", rr.Summary)
	}
}

func TestExecute_ProviderFailureIsolated(t *testing.T) {
	inbox := t.TempDir()
	vault := t.TempDir()
	song := seed(t, inbox, "voice.mp3", "ID3")
	note := seed(t, inbox, "a.txt", "x")

	r := &Runner{
		Cfg:      config.EffectiveConfig{Inbox: inbox, Vault: vault},
		Provider: stubProvider{err: errors.New("exiftool 不在 PATH")},
	}
	rr, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("提取失败不应中断批次：%v", err)
	}

	// 音频落回兜底分类并带降级说明。
	it := itemBySrc(t, rr, song)
	if it.Status != domain.StatusMoved || it.Category != "audio/music" {
		t.Fatalf("兜底分类不符：%+v", it)
	}
	if it.Note == "" {
		t.Fatalf("应携带降级说明：%+v", it)
	}
	// 同批次的普通文件不受影响。
	if it = itemBySrc(t, rr, note); it.Status != domain.StatusMoved {
		t.Fatalf("同批条目被波及：%+v", it)
	}
	if rr.Summary.Failed != 0 {
		t.Fatalf("不应有失败：%+v", rr.Summary)
	}
}

func TestExecute_ExistingTargetSkippedOthersMove(t *testing.T) {
	inbox := t.TempDir()
	vault := t.TempDir()
	stamped := seed(t, inbox, "a_20240101-120000.txt", "new")
	fresh := seed(t, inbox, "b.txt", "y")
	seed(t, vault, filepath.Join("notes", "a_20240101-120000.txt"), "old-longer")

	r := &Runner{Cfg: config.EffectiveConfig{Inbox: inbox, Vault: vault}, Provider: stubProvider{}}
	rr, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	it := itemBySrc(t, rr, stamped)
	if it.Status != domain.StatusSkipped || it.Reason != domain.ReasonExists {
		t.Fatalf("期望 skipped/exists：%+v", it)
	}
	if _, err := os.Stat(stamped); err != nil {
		t.Fatalf("跳过的源应保留：%v", err)
	}
	if it = itemBySrc(t, rr, fresh); it.Status != domain.StatusMoved {
		t.Fatalf("其余条目应照常移动：%+v", it)
	}
	if rr.Summary.Skipped != 1 || rr.Summary.Moved != 1 {
		t.Fatalf("汇总不符：%+v", rr.Summary)
	}
}
