package exiftool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/John-Robertt/DVO/internal/provider"
)

func TestParseOutput_FlattenAndDropSourceFile(t *testing.T) {
	out := []byte(`[{
		"SourceFile": "/inbox/song.mp3",
		"Artist": "Someone",
		"TrackNumber": 5,
		"Duration": 12.5,
		"Keywords": ["a", "b"],
		"Tagged": true,
		"Empty": null
	}]`)

	tags, err := parseOutput(out)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := tags["SourceFile"]; ok {
		t.Fatalf("SourceFile 是路径衍生标签，必须丢弃")
	}
	if tags.Get("Artist") != "Someone" {
		t.Fatalf("Artist=%q", tags.Get("Artist"))
	}
	if tags.Get("TrackNumber") != "5" {
		t.Fatalf("整数应扁平化为十进制：%q", tags.Get("TrackNumber"))
	}
	if tags.Get("Duration") != "12.5" {
		t.Fatalf("小数应保留：%q", tags.Get("Duration"))
	}
	if tags.Get("Keywords") != "a, b" {
		t.Fatalf("数组应拼接：%q", tags.Get("Keywords"))
	}
	if tags.Get("Tagged") != "true" || tags.Has("Empty") {
		t.Fatalf("布尔/空值扁平化不正确：%v", tags)
	}
}

func TestParseOutput_EmptyArray(t *testing.T) {
	if _, err := parseOutput([]byte(`[]`)); err == nil {
		t.Fatalf("空数组应报错")
	}
	if _, err := parseOutput([]byte(`{`)); err == nil {
		t.Fatalf("残缺 JSON 应报错")
	}
}

func TestBuildArgs(t *testing.T) {
	got := buildArgs([]string{"Artist", "", "Album"}, "/inbox/a.mp3")
	want := []string{"-json", "-Artist", "-Album", "/inbox/a.mp3"}
	if len(got) != len(want) {
		t.Fatalf("参数不正确：%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("参数不正确：%v", got)
		}
	}
}

func TestFetch_BinaryMissing(t *testing.T) {
	orig := lookPathFunc
	lookPathFunc = func(string) (string, error) { return "", errors.New("不在 PATH 中") }
	defer func() { lookPathFunc = orig }()

	tool := New("exiftool", 0)
	_, err := tool.Fetch(context.Background(), "/inbox/a.mp3", nil)
	if provider.Stage(err) != provider.StageUnavailable {
		t.Fatalf("期望 stage=unavailable，实际 err=%v", err)
	}
}

func TestFetch_ExecFailureAndDecodeFailure(t *testing.T) {
	origLook, origRun := lookPathFunc, runFunc
	lookPathFunc = func(string) (string, error) { return "/usr/bin/exiftool", nil }
	defer func() { lookPathFunc, runFunc = origLook, origRun }()

	runFunc = func(context.Context, string, []string) ([]byte, error) {
		return nil, fmt.Errorf("exit status 1: file corrupt")
	}
	tool := New("", 0)
	_, err := tool.Fetch(context.Background(), "/inbox/a.mp3", []string{"Artist"})
	if provider.Stage(err) != provider.StageExec {
		t.Fatalf("期望 stage=exec，实际 err=%v", err)
	}

	runFunc = func(context.Context, string, []string) ([]byte, error) {
		return []byte("not json"), nil
	}
	_, err = tool.Fetch(context.Background(), "/inbox/a.mp3", nil)
	if provider.Stage(err) != provider.StageDecode {
		t.Fatalf("期望 stage=decode，实际 err=%v", err)
	}
}
