package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"StockLens/internal/analyzer"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/recorder"
	"StockLens/internal/watchlist"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic watchlist scan and serves bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  *analyzer.Analyzer
	Watchlist *watchlist.Store
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	Filter    *analyzer.PriceFilter // optional, applied to every scan
	Ctx       context.Context

	mu         sync.Mutex
	currentRun *analyzer.Run
	lastReport *analyzer.Report
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, an *analyzer.Analyzer, wl *watchlist.Store,
	tn *notifier.TelegramNotifier, rec recorder.Recorder) *Scheduler {
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Analyzer:  an,
		Watchlist: wl,
		Notifier:  tn,
		Recorder:  rec,
		Ctx:       ctx,
	}
	an.OnProgress(s.logProgress)
	return s
}

// RegisterAll registers the scheduled scan.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and cancels any in-flight scan.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.mu.Lock()
	if s.currentRun != nil {
		s.currentRun.Cancel()
	}
	s.mu.Unlock()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes the scan immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	symbols := s.Watchlist.Symbols()
	if len(symbols) == 0 {
		log.Println("[WARN] scan skipped: watchlist is empty")
		return
	}
	log.Printf("[INFO] scanning %d symbols", len(symbols))

	s.mu.Lock()
	if s.currentRun != nil {
		s.mu.Unlock()
		log.Println("[WARN] scan skipped: previous scan still running")
		return
	}
	run := s.Analyzer.Analyze(s.Ctx, analyzer.Request{Symbols: symbols, PriceFilter: s.Filter})
	s.currentRun = run
	s.mu.Unlock()

	report := run.Wait()

	s.mu.Lock()
	s.currentRun = nil
	s.lastReport = report
	s.mu.Unlock()

	log.Printf("[INFO] scan %s done: %d ok, %d failed, cancelled=%v",
		report.RunID, report.Succeeded(), len(report.Errors), report.Cancelled)

	if err := s.Recorder.RecordRun(&recorder.RunSummary{
		RunID:     report.RunID,
		Started:   report.Started,
		Finished:  report.Finished,
		Total:     len(report.Outcomes),
		Completed: report.Succeeded(),
		Failed:    len(report.Errors),
		Cancelled: report.Cancelled,
	}, report.Outcomes); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}

	s.trySend(notifier.FormatScanReport(report, 10))
}

// logProgress logs aggregated run progress at roughly 10% steps.
func (s *Scheduler) logProgress(p model.ProgressSnapshot) {
	if p.Total == 0 {
		return
	}
	settled := p.Completed + p.Failed
	step := p.Total / 10
	if step == 0 {
		step = 1
	}
	if settled == 0 || settled == p.Total || settled%step == 0 {
		log.Printf("[INFO] progress %d/%d (%.2f%%), %d failed", settled, p.Total, p.Percent, p.Failed)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/scan", "扫描":
		go s.scanTask()
		return "扫描已启动"
	case "/cancel":
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.currentRun == nil {
			return "当前没有进行中的扫描"
		}
		s.currentRun.Cancel()
		return "已请求取消，稍后返回部分结果"
	case "/status", "状态":
		return s.statusReply()
	case "/watchlist", "自选":
		return fmt.Sprintf("自选股 %d 只:\n%s", s.Watchlist.Len(), strings.Join(s.Watchlist.Symbols(), ", "))
	case "/add":
		if len(fields) < 2 {
			return "用法: /add 600519"
		}
		return s.addSymbol(fields[1])
	case "/del":
		if len(fields) < 2 {
			return "用法: /del 600519"
		}
		return s.removeSymbol(fields[1])
	default:
		return "可用命令:\n• /scan 立即扫描\n• /cancel 取消扫描\n• /status 查看状态\n• /watchlist 查看自选\n• /add <代码> /del <代码>"
	}
}

func (s *Scheduler) statusReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentRun != nil {
		return "扫描进行中..."
	}
	if s.lastReport == nil {
		return "尚未执行过扫描"
	}
	return notifier.FormatScanReport(s.lastReport, 10)
}

func (s *Scheduler) addSymbol(code string) string {
	added, err := s.Watchlist.Add(code)
	if err != nil {
		return fmt.Sprintf("保存失败: %v", err)
	}
	if !added {
		return code + " 已在自选中"
	}
	return "已添加 " + code
}

func (s *Scheduler) removeSymbol(code string) string {
	removed, err := s.Watchlist.Remove(code)
	if err != nil {
		return fmt.Sprintf("保存失败: %v", err)
	}
	if !removed {
		return code + " 不在自选中"
	}
	return "已移除 " + code
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
