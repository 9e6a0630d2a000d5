package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/aruvell/marksub/internal/config"
	"github.com/aruvell/marksub/internal/jobs"
	"github.com/aruvell/marksub/internal/library"
	"github.com/aruvell/marksub/internal/translator"
)

func newTestConfig(dir string) *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			APIKey: "test-key",
			// Nothing listens on port 1, so every batch fails fast.
			APIURL:      "http://127.0.0.1:1",
			Model:       "test-model",
			MaxTokens:   512,
			Temperature: 0.2,
			Timeout:     1,
		},
		Library: config.LibraryConfig{Dirs: []string{dir}},
		System:  config.SystemConfig{DataDir: dir, LogLevel: "info"},
		Translate: config.TranslateConfig{
			TargetLanguage: language.Chinese,
			CronExpr:       "0 3 * * *",
			BatchSize:      2,
			PromptTemplate: translator.DefaultPromptTemplate,
		},
		HTTP: config.HTTPConfig{Addr: "127.0.0.1:0"},
	}
}

func newTestService(t *testing.T, dir string) (*Service, *jobs.Queue, *library.Scanner, *config.Config) {
	t.Helper()
	cfg := newTestConfig(dir)
	scanner := library.NewScanner(cfg.Library.Dirs, cfg.Translate.TargetLanguage)
	queue := jobs.NewQueue(1, nil)
	svc := NewService(cfg, scanner, queue, nil, cron.New(), nil)
	return svc, queue, scanner, cfg
}

func TestService_TriggerScan_DeduplicatesAcrossSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSRT(t, dir, "ep01.en.srt")
	svc, queue, _, _ := newTestService(t, dir)

	created, err := svc.TriggerScan(context.Background(), "cron")
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// The same candidate triggered manually rides the existing job.
	created, err = svc.TriggerScan(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	jobList := queue.List()
	require.Len(t, jobList, 1)
	job := jobList[0]
	assert.Equal(t, "cron", job.Source)
	assert.Equal(t, src, job.Payload.SubtitlePath)
	assert.Equal(t, filepath.Join(dir, "ep01.zh.srt"), job.Payload.OutputPath)
	assert.Equal(t, "zh", job.Payload.TargetLanguage)
}

func TestService_ApplyRuntimeSettings_ReschedulesAndUpdatesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, _, scanner, cfg := newTestService(t, dir)
	engine := svc.cron

	require.NoError(t, svc.Schedule(context.Background()))
	defer svc.Stop()
	require.Len(t, engine.Entries(), 1)

	next := config.RuntimeSettings{
		LLMAPIURL:      "https://llm.example/api/v1",
		LLMAPIKey:      "new-key",
		LLMModel:       "new-model",
		CronExpr:       "*/10 * * * *",
		TargetLanguage: "en",
		BatchSize:      7,
	}
	require.NoError(t, svc.ApplyRuntimeSettings(next))

	assert.Equal(t, "https://llm.example/api/v1", cfg.LLM.APIURL)
	assert.Equal(t, "new-key", cfg.LLM.APIKey)
	assert.Equal(t, "new-model", cfg.LLM.Model)
	assert.Equal(t, language.English, cfg.Translate.TargetLanguage)
	assert.Equal(t, 7, cfg.Translate.BatchSize)
	assert.Equal(t, "en", scanner.TargetLanguage())
	assert.Equal(t, "*/10 * * * *", svc.cronExpr)
	assert.Len(t, engine.Entries(), 1, "reschedule must swap the entry, not add one")
}

func TestService_ApplyRuntimeSettings_RejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, _, _, cfg := newTestService(t, dir)

	bad := cfg.RuntimeSettings()
	bad.CronExpr = "nonsense"
	require.Error(t, svc.ApplyRuntimeSettings(bad))

	bad = cfg.RuntimeSettings()
	bad.TargetLanguage = "zz zz"
	require.Error(t, svc.ApplyRuntimeSettings(bad))

	assert.Equal(t, "test-model", cfg.LLM.Model)
	assert.Equal(t, "0 3 * * *", svc.cronExpr)
}

func TestService_ExecuteJob_SkipsWhenOutputExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSRT(t, dir, "ep01.en.srt")
	out := writeSRT(t, dir, "ep01.zh.srt")
	svc, _, _, _ := newTestService(t, dir)

	job := &jobs.TranslationJob{
		ID: "job-1",
		Payload: jobs.JobPayload{
			SubtitlePath:   src,
			OutputPath:     out,
			TargetLanguage: "zh",
		},
	}
	err := svc.executeJob(context.Background(), job)
	require.ErrorIs(t, err, jobs.ErrSkip)
}

func TestService_ScanAndExecuteFlow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSRT(t, dir, "ep01.en.srt")
	svc, queue, scanner, _ := newTestService(t, dir)

	require.NoError(t, svc.Schedule(context.Background()))
	defer svc.Stop()

	created, err := svc.TriggerScan(context.Background(), "manual")
	require.NoError(t, err)
	require.Equal(t, 1, created)

	jobList := queue.List()
	require.Len(t, jobList, 1)
	id := jobList[0].ID

	// The LLM endpoint is unreachable, so every batch fails open and the
	// job still completes with the source text written through.
	require.Eventually(t, func() bool {
		job, ok := queue.Get(id)
		return ok && job.Status == jobs.StatusSuccess
	}, 10*time.Second, 20*time.Millisecond)

	out := filepath.Join(dir, "ep01.zh.srt")
	assert.Equal(t, []string{"Hello", "World", "Good night"}, readCueTexts(t, out))

	// The translated sibling now suppresses the candidate.
	scanner.Invalidate()
	created, err = svc.TriggerScan(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestService_ScheduleInfo(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t, t.TempDir())

	info, err := svc.ScheduleInfo()
	require.NoError(t, err)
	assert.Equal(t, "0 3 * * *", info.Expression)
	assert.True(t, info.Next.After(time.Now()))
}

func TestService_ExecuteJob_MissingSourceFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, _, _, _ := newTestService(t, dir)

	job := &jobs.TranslationJob{
		ID: "job-2",
		Payload: jobs.JobPayload{
			SubtitlePath:   filepath.Join(dir, "gone.srt"),
			OutputPath:     filepath.Join(dir, "gone.zh.srt"),
			TargetLanguage: "zh",
		},
	}
	err := svc.executeJob(context.Background(), job)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileRead))

	_, statErr := os.Stat(job.Payload.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}
