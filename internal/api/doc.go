// Package api 暴露查询任务的 REST 接口，包括提交、查询、统计与用户名候选生成。
package api
