package lookup

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	xerrors "ProfileFinder/internal/errors"
	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/observability/alerting"
	"ProfileFinder/internal/observability/metrics"
	"ProfileFinder/internal/profile"
	"ProfileFinder/pkg/logger"
)

// Executor 执行一次查询工作流，finder.Runner 实现了该接口。
type Executor interface {
	Run(ctx context.Context, workflow finder.Workflow, name, employer string) (profile.Result, error)
}

// Processor 负责从队列消费任务并交给 Executor 执行。
type Processor struct {
	executor    Executor
	store       Store
	consumer    Consumer
	producer    Producer
	workerCount int
	timeout     time.Duration
	logger      *slog.Logger
	recovery    RecoveryHandler
	alerter     alerting.Dispatcher
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithProcessorLogger 指定日志输出。
func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = log
	}
}

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithExecutionTimeout 限制单次查询的执行时间。
func WithExecutionTimeout(timeout time.Duration) ProcessorOption {
	return func(p *Processor) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithRecoveryHandler 配置失败补偿策略。
func WithRecoveryHandler(handler RecoveryHandler) ProcessorOption {
	return func(p *Processor) {
		p.recovery = handler
	}
}

// WithAlertDispatcher 配置告警派发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(executor Executor, store Store, consumer Consumer, producer Producer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		executor:    executor,
		store:       store,
		consumer:    consumer,
		producer:    producer,
		workerCount: 1,
		logger:      logger.Named("lookup-processor"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start 启动任务处理循环，直到 ctx 结束。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置任务消费者")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, jobID string) error {
	if p.store == nil || p.executor == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "处理器未初始化")
	}
	job, err := p.store.Claim(ctx, jobID)
	if err != nil {
		if stdErrors.Is(err, ErrJobNotFound) || stdErrors.Is(err, ErrJobCompleted) || stdErrors.Is(err, ErrJobExhausted) {
			p.logDebug("跳过任务", slog.String("lookup_id", jobID), slog.String("reason", err.Error()))
			return nil
		}
		logger.L().Error("领取任务失败", slog.Any("error", err), slog.String("lookup_id", jobID))
		p.emitAlert(ctx, &Job{ID: jobID}, CodeJobProcessing, err, "claim")
		return err
	}

	started := time.Now()
	execCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, execErr := p.executor.Run(execCtx, job.Workflow, job.Name, job.Employer)
	if execErr != nil {
		metrics.ObserveLookup(string(job.Workflow), "error", time.Since(started))
		return p.handleExecutionFailure(ctx, job, execErr)
	}
	outcome := "not_found"
	if result.Found {
		outcome = "found"
	}
	metrics.ObserveLookup(string(job.Workflow), outcome, time.Since(started))
	return p.complete(ctx, job, result, "查询完成")
}

// complete 写入结果；写入失败时回到 pending 并重新入队。
func (p *Processor) complete(ctx context.Context, job *Job, result profile.Result, message string) error {
	if err := p.store.MarkSucceeded(ctx, job.ID, result); err != nil {
		logger.L().Error("标记任务成功状态失败", slog.Any("error", err), slog.String("lookup_id", job.ID))
		if storeErr := p.store.MarkFailed(ctx, job.ID, CodeJobProcessing, err.Error(), false); storeErr != nil {
			logger.L().Error("回写失败状态出错", slog.Any("error", storeErr), slog.String("lookup_id", job.ID))
			return storeErr
		}
		if pubErr := p.producer.Publish(ctx, job.ID); pubErr != nil {
			return xerrors.Wrap(CodeJobPublish, pubErr, fmt.Sprintf("任务 %s 在标记成功失败后重投失败", job.ID))
		}
		logger.Audit().Warn("任务标记成功失败后重试",
			slog.String("lookup_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	logger.Audit().Info(message,
		slog.String("lookup_id", job.ID),
		slog.String("name", job.Name),
		slog.String("employer", job.Employer),
		slog.String("workflow", string(job.Workflow)),
		slog.Bool("found", result.Found),
		slog.String("url", result.URL),
		slog.String("method", string(result.Method)),
	)
	return nil
}

func (p *Processor) handleExecutionFailure(ctx context.Context, job *Job, execErr error) error {
	code := xerrors.CodeOf(execErr)
	if code == xerrors.CodeUnknown {
		code = CodeJobProcessing
	}
	retryable := xerrors.RetryableError(execErr)
	terminal := job.Attempts >= job.MaxRetries || !retryable

	if terminal && p.recovery != nil {
		fallback, recErr := p.recovery.Recover(ctx, job, execErr)
		if recErr != nil {
			wrapped := xerrors.Wrap(CodeJobCompensate, recErr, "任务补偿失败")
			logger.L().Error("执行补偿逻辑失败", slog.Any("error", wrapped), slog.String("lookup_id", job.ID))
			p.emitAlert(ctx, job, CodeJobCompensate, wrapped, "compensate")
		} else if fallback != nil {
			p.emitAlert(ctx, job, code, execErr, "degraded")
			return p.complete(ctx, job, *fallback, "查询降级完成")
		}
	}

	if storeErr := p.store.MarkFailed(ctx, job.ID, code, execErr.Error(), terminal); storeErr != nil {
		logger.L().Error("标记任务失败状态出错", slog.Any("error", storeErr), slog.String("lookup_id", job.ID))
		return storeErr
	}
	logger.Audit().Warn("查询执行失败",
		slog.String("lookup_id", job.ID),
		slog.String("name", job.Name),
		slog.Bool("terminal", terminal),
		slog.String("error", execErr.Error()),
		slog.String("error_code", string(code)),
		slog.Int("attempts", job.Attempts),
		slog.Int("max_retries", job.MaxRetries),
	)

	stage := "retry"
	if terminal {
		stage = "terminal"
	}
	if xerrors.ShouldAlert(execErr) || terminal {
		p.emitAlert(ctx, job, code, execErr, stage)
	}

	if !terminal {
		if pubErr := p.producer.Publish(ctx, job.ID); pubErr != nil {
			return xerrors.Wrap(CodeJobPublish, pubErr, fmt.Sprintf("任务 %s 重投失败", job.ID))
		}
		p.logDebug("任务已重新排队", slog.String("lookup_id", job.ID), slog.Int("attempts", job.Attempts))
	}
	return nil
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger == nil {
		return
	}
	p.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (p *Processor) emitAlert(ctx context.Context, job *Job, code xerrors.Code, cause error, stage string) {
	if p == nil || p.alerter == nil || job == nil {
		return
	}
	attrs := xerrors.AttributesOf(code)
	message := attrs.Message
	metadata := map[string]string{
		"stage":    stage,
		"workflow": string(job.Workflow),
	}
	if cause != nil {
		message = cause.Error()
		metadata["cause"] = cause.Error()
	}
	event := alerting.Event{
		Code:       code,
		Message:    message,
		Severity:   attrs.Severity,
		LookupID:   job.ID,
		Attempts:   job.Attempts,
		MaxRetries: job.MaxRetries,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	if err := p.alerter.Notify(ctx, event); err != nil {
		logger.L().Error("告警通知失败",
			slog.Any("error", err),
			slog.String("lookup_id", job.ID),
			slog.String("stage", stage),
		)
	}
}
