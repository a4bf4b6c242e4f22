package lookup

import (
	"context"
	"fmt"

	"ProfileFinder/internal/profile"
	"ProfileFinder/internal/username"
)

// RecoveryHandler 定义了在任务执行最终失败时的补偿策略。
type RecoveryHandler interface {
	// Recover 返回的结果将作为降级结果写入任务；返回 nil 则继续按照失败流程处理。
	Recover(ctx context.Context, job *Job, cause error) (*profile.Result, error)
}

// NotFoundRecovery 将失败的查询降级为带手动搜索链接的未找到结果。
type NotFoundRecovery struct{}

// Recover 实现 RecoveryHandler。
func (NotFoundRecovery) Recover(_ context.Context, job *Job, cause error) (*profile.Result, error) {
	if job == nil {
		return nil, nil
	}
	message := "Lookup could not be completed. Try manual search at the provided URL."
	if cause != nil {
		message = fmt.Sprintf("Lookup could not be completed (%v). Try manual search at the provided URL.", cause)
	}
	result := profile.NotFound(job.Name, job.Employer, message)
	result.TriedPatterns = username.Generate(job.Name)
	return &result, nil
}
