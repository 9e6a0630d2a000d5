package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/aruvell/marksub/internal/config"
	"github.com/aruvell/marksub/internal/jobs"
	"github.com/aruvell/marksub/internal/library"
	"github.com/aruvell/marksub/internal/llm"
	"github.com/aruvell/marksub/internal/persistence"
	"github.com/aruvell/marksub/pkg/icron"
	"github.com/aruvell/marksub/pkg/log"
)

// Service wires the scanner, the job queue and the scheduler together:
// cron triggers library scans, scans enqueue one job per translation
// candidate, and queue workers run each job through a FileTranslator.
type Service struct {
	scanner *library.Scanner
	queue   *jobs.Queue
	store   *persistence.SQLiteStore
	cron    *cron.Cron
	sink    EventSink

	mu        sync.RWMutex
	cfg       *config.Config
	cronExpr  string
	cronID    cron.EntryID
	scheduled bool
	runCtx    context.Context

	scanGroup singleflight.Group
}

// NewService assembles a service. The store may be nil, which disables
// checkpoint resume; the sink may be nil, which disables events.
func NewService(
	cfg *config.Config,
	scanner *library.Scanner,
	queue *jobs.Queue,
	store *persistence.SQLiteStore,
	cronEngine *cron.Cron,
	sink EventSink,
) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	return &Service{
		cfg:      cfg,
		cronExpr: cfg.Translate.CronExpr,
		scanner:  scanner,
		queue:    queue,
		store:    store,
		cron:     cronEngine,
		sink:     sink,
		runCtx:   context.Background(),
	}
}

// Schedule registers the periodic library scan and starts the queue
// workers. The cron engine itself is started and stopped by the caller.
func (s *Service) Schedule(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	expr := s.cronExpr
	s.mu.Unlock()

	id, err := s.cron.AddFunc(expr, s.scheduledScan)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cronID = id
	s.scheduled = true
	s.mu.Unlock()

	s.queue.Start(s.executeJob)

	if info, err := icron.GetTriggerInfo(expr, time.Now()); err == nil {
		log.Info("library scan scheduled: cron=%q next=%s", expr, info.Next.Format(time.RFC3339))
	}
	return nil
}

func (s *Service) scheduledScan() {
	s.mu.RLock()
	ctx := s.runCtx
	s.mu.RUnlock()

	if _, err := s.TriggerScan(ctx, "cron"); err != nil {
		log.Error("scheduled scan failed: %v", err)
	}
}

// TriggerScan scans the library once and enqueues a job per candidate,
// returning how many jobs were newly created. Concurrent triggers
// collapse into a single scan; cron and manual triggers share the
// queue's dedupe keys, so a candidate already queued by one source is
// not queued again by the other.
func (s *Service) TriggerScan(ctx context.Context, source string) (int, error) {
	v, err, _ := s.scanGroup.Do("scan", func() (any, error) {
		listing, err := s.scanner.Scan(ctx)
		if err != nil {
			return 0, err
		}

		target := s.scanner.TargetLanguage()
		enqueued := 0
		for _, cand := range listing.Candidates {
			_, created := s.queue.Enqueue(jobs.EnqueueRequest{
				Source:    source,
				DedupeKey: cand.DedupeKey(),
				Payload: jobs.JobPayload{
					SubtitlePath:   cand.SubtitlePath,
					OutputPath:     cand.OutputPath,
					TargetLanguage: target,
				},
			})
			if created {
				enqueued++
			}
		}
		log.Info("%s scan: %d candidates, %d jobs enqueued", source, len(listing.Candidates), enqueued)
		return enqueued, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// executeJob translates one queued job. The job ID doubles as the
// pipeline run ID, so a job re-queued after a crash resumes from its
// own checkpoints.
func (s *Service) executeJob(ctx context.Context, job *jobs.TranslationJob) error {
	if _, err := os.Stat(job.Payload.OutputPath); err == nil {
		return fmt.Errorf("output %s already exists: %w", job.Payload.OutputPath, jobs.ErrSkip)
	}

	ft, err := s.fileTranslator()
	if err != nil {
		return err
	}

	result, err := ft.Translate(ctx, job.ID, job.Payload.SubtitlePath, job.Payload.OutputPath)
	if err != nil {
		return err
	}

	if s.store != nil {
		if err := s.store.DeleteJobData(ctx, job.ID); err != nil {
			log.Warn("failed to clear checkpoints of job %s: %v", job.ID, err)
		}
	}

	log.Info("job %s done: %s -> %s, %d/%d cues translated in %v",
		job.ID, result.SubtitlePath, result.OutputPath,
		result.Stats.Translated+result.Stats.Resumed, result.Stats.Translatable, result.Duration)
	return nil
}

// fileTranslator assembles a translator from the current configuration.
// Built per job, so runtime settings changes apply to every job that
// starts after them.
func (s *Service) fileTranslator() (*FileTranslator, error) {
	s.mu.RLock()
	llmCfg := s.cfg.LLM
	settings := s.cfg.TranslatorSettings()
	s.mu.RUnlock()

	client, err := llm.NewClient(&llm.Config{
		APIKey:      llmCfg.APIKey,
		APIURL:      llmCfg.APIURL,
		Model:       llmCfg.Model,
		MaxTokens:   llmCfg.MaxTokens,
		Temperature: llmCfg.Temperature,
		Timeout:     llmCfg.Timeout,
		SiteURL:     llmCfg.SiteURL,
		AppName:     llmCfg.AppName,
	})
	if err != nil {
		return nil, WrapError(err, ErrConfig, "failed to create LLM client")
	}

	opts := []TranslatorOption{WithEventSink(s.sink)}
	if s.store != nil {
		opts = append(opts, WithCheckpointStore(s.store.Checkpoints()))
	}
	return NewFileTranslator(settings, client, opts...)
}

// ApplyRuntimeSettings applies validated settings to the running
// service: the LLM connection, the batch size, the scanner's target
// language and the scan schedule. Jobs started after the call pick up
// the new values.
func (s *Service) ApplyRuntimeSettings(settings config.RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	tag, err := language.Parse(settings.TargetLanguage)
	if err != nil {
		return WrapError(err, ErrValidation, "invalid target language")
	}

	s.mu.Lock()
	s.cfg.LLM.APIURL = settings.LLMAPIURL
	s.cfg.LLM.APIKey = settings.LLMAPIKey
	s.cfg.LLM.Model = settings.LLMModel
	s.cfg.Translate.TargetLanguage = tag
	s.cfg.Translate.BatchSize = settings.BatchSize
	s.cfg.Translate.CronExpr = settings.CronExpr
	s.mu.Unlock()

	if err := s.scanner.UpdateTargetLanguage(settings.TargetLanguage); err != nil {
		return err
	}
	return s.rescheduleScan(settings.CronExpr)
}

// rescheduleScan swaps the cron entry when the expression changed. The
// new entry is added before the old one is removed so a rejected
// expression keeps the current schedule.
func (s *Service) rescheduleScan(expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expr == s.cronExpr {
		return nil
	}
	if s.scheduled {
		id, err := s.cron.AddFunc(expr, s.scheduledScan)
		if err != nil {
			return err
		}
		s.cron.Remove(s.cronID)
		s.cronID = id
	}
	s.cronExpr = expr
	return nil
}

// ScheduleInfo reports where the scan schedule sits relative to now.
func (s *Service) ScheduleInfo() (*icron.TriggerInfo, error) {
	s.mu.RLock()
	expr := s.cronExpr
	s.mu.RUnlock()
	return icron.GetTriggerInfo(expr, time.Now())
}

// Stop drains the queue workers. A job interrupted mid-run stays
// pending and resumes on the next start. The cron engine is owned by
// the caller.
func (s *Service) Stop() {
	s.queue.Stop()
}
