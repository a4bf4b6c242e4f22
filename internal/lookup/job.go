package lookup

import (
	stdErrors "errors"

	xerrors "ProfileFinder/internal/errors"
	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/profile"
)

// Status 表示查询任务在生命周期中的状态。
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Request 描述一次提交的查询。
type Request struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Employer string `json:"employer"`
	Workflow string `json:"workflow,omitempty"`
}

// Job 描述排队执行的主页查询任务。
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Employer   string          `json:"employer"`
	Workflow   finder.Workflow `json:"workflow"`
	Status     Status          `json:"status"`
	Attempts   int             `json:"attempts"`
	MaxRetries int             `json:"max_retries"`
	LastError  string          `json:"last_error,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Result     *profile.Result `json:"result,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
}

// Done 判断任务是否已经结束。
func (j *Job) Done() bool {
	return j != nil && (j.Status == StatusSucceeded || j.Status == StatusFailed)
}

// Found 判断任务是否已找到主页。
func (j *Job) Found() bool {
	return j != nil && j.Result != nil && j.Result.Found
}

var (
	// ErrJobNotFound 表示指定的任务不存在。
	ErrJobNotFound = xerrors.New(CodeJobNotFound, "lookup not found")
	// ErrJobConflict 表示任务在当前状态下无法进行所请求的操作。
	ErrJobConflict = xerrors.New(CodeJobConflict, "lookup conflict", xerrors.WithSeverity(xerrors.SeverityWarning))
	// ErrJobCompleted 表示任务已经成功完成。
	ErrJobCompleted = xerrors.New(CodeJobCompleted, "lookup already completed", xerrors.WithSeverity(xerrors.SeverityInfo))
	// ErrJobExhausted 表示任务的重试次数已经耗尽。
	ErrJobExhausted = xerrors.New(CodeJobExhausted, "lookup retries exhausted", xerrors.WithSeverity(xerrors.SeverityCritical))
)

const (
	CodeJobNotFound   xerrors.Code = "LOOKUP_NOT_FOUND"
	CodeJobConflict   xerrors.Code = "LOOKUP_CONFLICT"
	CodeJobCompleted  xerrors.Code = "LOOKUP_COMPLETED"
	CodeJobExhausted  xerrors.Code = "LOOKUP_RETRIES_EXHAUSTED"
	CodeJobValidation xerrors.Code = "LOOKUP_VALIDATION_FAILED"
	CodeJobPublish    xerrors.Code = "LOOKUP_PUBLISH_FAILED"
	CodeJobProcessing xerrors.Code = "LOOKUP_PROCESSING_FAILED"
	CodeJobCompensate xerrors.Code = "LOOKUP_COMPENSATION_FAILED"
)

func init() {
	xerrors.Register(CodeJobNotFound, xerrors.Attributes{
		Message:  "lookup not found",
		Severity: xerrors.SeverityInfo,
	})
	xerrors.Register(CodeJobConflict, xerrors.Attributes{
		Message:  "lookup conflict",
		Severity: xerrors.SeverityWarning,
	})
	xerrors.Register(CodeJobCompleted, xerrors.Attributes{
		Message:  "lookup already completed",
		Severity: xerrors.SeverityInfo,
	})
	xerrors.Register(CodeJobExhausted, xerrors.Attributes{
		Message:  "lookup retries exhausted",
		Severity: xerrors.SeverityCritical,
		Alert:    true,
	})
	xerrors.Register(CodeJobValidation, xerrors.Attributes{
		Message:  "lookup validation failed",
		Severity: xerrors.SeverityInfo,
	})
	xerrors.Register(CodeJobPublish, xerrors.Attributes{
		Message:   "failed to publish lookup",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeJobProcessing, xerrors.Attributes{
		Message:   "lookup execution failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeJobCompensate, xerrors.Attributes{
		Message:  "lookup compensation failed",
		Severity: xerrors.SeverityCritical,
		Alert:    true,
	})
}

// IsJobError 判断错误是否为指定的查询任务错误。
func IsJobError(err error, target xerrors.Code) bool {
	switch {
	case err == nil:
		return false
	case stdErrors.Is(err, ErrJobNotFound):
		return target == CodeJobNotFound
	case stdErrors.Is(err, ErrJobConflict):
		return target == CodeJobConflict
	case stdErrors.Is(err, ErrJobCompleted):
		return target == CodeJobCompleted
	case stdErrors.Is(err, ErrJobExhausted):
		return target == CodeJobExhausted
	}
	return false
}

// IsValidStatus 检查给定的任务状态是否为支持的枚举值。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

func cloneResult(result *profile.Result) *profile.Result {
	if result == nil {
		return nil
	}
	clone := *result
	clone.AllURLs = append([]string(nil), result.AllURLs...)
	clone.TriedPatterns = append([]string(nil), result.TriedPatterns...)
	return &clone
}

func cloneJob(job *Job) *Job {
	clone := *job
	clone.Result = cloneResult(job.Result)
	return &clone
}
