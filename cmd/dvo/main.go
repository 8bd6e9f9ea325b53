package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/DVO/internal/app/run"
	"github.com/John-Robertt/DVO/internal/config"
	"github.com/John-Robertt/DVO/internal/domain"
	"github.com/John-Robertt/DVO/internal/provider/exiftool"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dvo：%v\n", err)
		var ee *execError
		if errors.As(err, &ee) {
			os.Exit(1)
		}
		// 到不了 execError 的只有参数解析/用法错误。
		os.Exit(2)
	}
}

// execError 标记参数解析之后的运行失败（配置、收件箱、金库、锁）。
// main 据此区分退出码：运行失败 1，用法错误 2；单文件失败不影响退出码。
type execError struct{ err error }

func (e *execError) Error() string { return e.err.Error() }
func (e *execError) Unwrap() error { return e.err }

func newRootCommand() *cobra.Command {
	var cli config.CLIArgs

	cmd := &cobra.Command{
		Use:   "dvo",
		Short: "把收件箱文件按类型整理进金库",
		Long: `dvo 扫描收件箱顶层条目，按扩展名（少数类型按元数据）确定分类，
重命名为 名字_YYYYMMDD-HHMMSS 后移动到金库对应目录。

默认实跑；--dry-run 只预演并报告将发生什么，不做任何改动。
stdout 非终端时只输出一个 RunReport JSON，进度与诊断一律走 stderr。`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			cli.DryRunSet = fl.Changed("dry-run")
			cli.VerboseSet = fl.Changed("verbose")
			cli.DateDirsSet = fl.Changed("date-dirs")
			cli.ArchiveDirsSet = fl.Changed("archive-dirs")
			cli.CleanHiddenSet = fl.Changed("clean-hidden")

			if err := organize(cmd.Context(), cli); err != nil {
				return &execError{err: err}
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&cli.Inbox, "inbox", "", "收件箱目录（默认 ~/inbox；环境变量 DVO_INBOX）")
	fl.StringVar(&cli.Vault, "vault", "", "金库目录（默认 ~/digital_vault；环境变量 DVO_VAULT）")
	fl.StringVar(&cli.ConfigPath, "config", "", "配置文件（默认自动发现 ~/.config/dvo/config.toml 或 ./dvo.toml）")
	fl.StringVar(&cli.RulesPath, "rules", "", "分类规则叠加文件（YAML：分类 -> 追加扩展名）")
	fl.BoolVar(&cli.DryRun, "dry-run", false, "预演：只报告将发生什么，不做任何改动")
	fl.BoolVar(&cli.Verbose, "verbose", false, "输出每个条目的处理明细（含 ignored）")
	fl.BoolVar(&cli.DateDirs, "date-dirs", false, "在分类目录下按 年/年-月/年-月-日 建层")
	fl.BoolVar(&cli.ArchiveDirs, "archive-dirs", false, "把收件箱顶层目录压缩为 zip 归档（默认忽略目录）")
	fl.BoolVar(&cli.CleanHidden, "clean-hidden", false, "删除收件箱顶层的隐藏文件（默认忽略）")

	return cmd
}

func organize(ctx context.Context, cli config.CLIArgs) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		emitReport(setupReport("", "", cli.DryRunSet && cli.DryRun, config.Code(err), err))
		return err
	}

	var obs run.Observer
	interactive := isatty.IsTerminal(os.Stderr.Fd())
	if interactive || eff.Verbose {
		obs = newProgressUI(os.Stderr, interactive, eff.Verbose)
	}

	runner := &run.Runner{
		Cfg:      eff,
		Provider: exiftool.New(eff.Exiftool, eff.ExiftoolTimeout),
		Obs:      obs,
	}
	rr, err := runner.Execute(ctx)
	if err != nil {
		emitReport(setupReport(eff.Inbox, eff.Vault, eff.DryRun, run.SetupCode(err), err))
		return err
	}

	emitReport(rr)
	return nil
}

// emitReport 是对外输出的唯一出口。
// stdout 为 TTY：渲染摘要表（人看的）；失败条目的定位信息走 stderr。
// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON，摘要行走 stderr。
func emitReport(rr domain.RunReport) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stdout, renderSummary(rr))
		if rr.Vault != "" {
			fmt.Fprintf(os.Stdout, "vault: %s\n", rr.Vault)
		}
		if rr.DryRun {
			fmt.Fprintln(os.Stdout, "dry-run：以上为预演结果，未改动任何文件")
		}
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			src := it.Src
			if src == "" {
				// 配置/锁等合成条目没有源文件路径。
				src = "<setup>"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", src, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：moved=%d skipped=%d failed=%d archived=%d cleaned=%d ignored=%d\n",
		rr.Summary.Moved, rr.Summary.Skipped, rr.Summary.Failed,
		rr.Summary.Archived, rr.Summary.Cleaned, rr.Summary.Ignored,
	)
}

// setupReport 在批次无法开始时合成单条 failed 报告，
// 保证 stdout 上的 RunReport 契约在失败路径上同样成立。
func setupReport(inbox, vault string, dryRun bool, code string, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		RunID:      uuid.NewString(),
		Inbox:      inbox,
		Vault:      vault,
		DryRun:     dryRun,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: code,
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}
