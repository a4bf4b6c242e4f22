package api

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/lookup"
	"ProfileFinder/internal/profile"
	"ProfileFinder/internal/username"
)

const maxRequestBody = 64 << 10

// ListResponse 是列表接口的返回体。
type ListResponse struct {
	Lookups []*lookup.Job `json:"lookups"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

// UsernamesResponse 是用户名候选接口的返回体。
type UsernamesResponse struct {
	Name      string   `json:"name"`
	Usernames []string `json:"usernames"`
	URLs      []string `json:"urls"`
}

func (s *Server) handleLookups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateLookup(w, r)
	case http.MethodGet:
		s.handleListLookups(w, r)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleCreateLookup(w http.ResponseWriter, r *http.Request) {
	if s.lookups == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "查询服务未初始化")
		return
	}

	var req lookup.Request
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "请求体解析失败")
		return
	}

	wait, err := parseWait(r.URL.Query().Get("wait"), s.maxWait)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	ctx := r.Context()
	job, err := s.lookups.Submit(ctx, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if wait > 0 && !job.Done() {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		latest, waitErr := s.lookups.WaitUntilCompleted(waitCtx, job.ID, waitPollInterval)
		switch {
		case waitErr == nil:
			job = latest
		case stdErrors.Is(waitErr, context.DeadlineExceeded) || stdErrors.Is(waitErr, context.Canceled):
			if latest != nil {
				job = latest
			}
		default:
			s.logger.Warn("等待查询完成失败", slog.String("lookup_id", job.ID), slog.Any("error", waitErr))
		}
	}

	status := http.StatusAccepted
	if job.Done() {
		status = http.StatusOK
	}
	writeJSON(w, status, job)
}

func (s *Server) handleListLookups(w http.ResponseWriter, r *http.Request) {
	if s.lookups == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "查询服务未初始化")
		return
	}
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	jobs, err := s.lookups.List(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	applied := lookup.ResolveListOptions(opts...)
	writeJSON(w, http.StatusOK, ListResponse{Lookups: jobs, Limit: applied.Limit, Offset: applied.Offset})
}

func (s *Server) handleLookupDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if s.lookups == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "查询服务未初始化")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/lookups/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "缺少任务 ID")
		return
	}
	if id == "stats" {
		s.handleLookupStats(w, r)
		return
	}

	job, err := s.lookups.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleLookupStats(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	stats, err := s.lookups.Stats(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUsernames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "name 参数不能为空")
		return
	}
	candidates := username.Generate(name)
	urls := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		urls = append(urls, profile.BuildURL(s.baseURL, candidate))
	}
	writeJSON(w, http.StatusOK, UsernamesResponse{Name: name, Usernames: candidates, URLs: urls})
}

// parseWait 解析 ?wait= 秒数，并限制在 maxWait 之内。
func parseWait(raw string, maxWait time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds < 0 {
		return 0, stdErrors.New("wait 必须是非负秒数")
	}
	wait := time.Duration(seconds * float64(time.Second))
	if maxWait > 0 && wait > maxWait {
		wait = maxWait
	}
	return wait, nil
}

func parseListOptions(values map[string][]string) ([]lookup.ListOption, error) {
	get := func(key string) string {
		if v, ok := values[key]; ok && len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var opts []lookup.ListOption
	if raw := get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return nil, stdErrors.New("limit 必须是正整数")
		}
		opts = append(opts, lookup.WithLimit(limit))
	}
	if raw := get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return nil, stdErrors.New("offset 必须是非负整数")
		}
		opts = append(opts, lookup.WithOffset(offset))
	}
	if raw := get("status"); raw != "" {
		var statuses []lookup.Status
		for _, part := range splitList(raw) {
			status := lookup.Status(strings.ToLower(part))
			if !lookup.IsValidStatus(status) {
				return nil, stdErrors.New("未知的任务状态: " + part)
			}
			statuses = append(statuses, status)
		}
		opts = append(opts, lookup.WithStatuses(statuses...))
	}
	if raw := get("workflow"); raw != "" {
		var workflows []finder.Workflow
		for _, part := range splitList(raw) {
			workflow, err := finder.ParseWorkflow(part)
			if err != nil {
				return nil, err
			}
			workflows = append(workflows, workflow)
		}
		opts = append(opts, lookup.WithWorkflows(workflows...))
	}
	if raw := get("found"); raw != "" {
		found, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, stdErrors.New("found 必须是布尔值")
		}
		opts = append(opts, lookup.WithFound(found))
	}
	if raw := get("since"); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lookup.WithUpdatedSince(ts))
	}
	if raw := get("until"); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lookup.WithUpdatedUntil(ts))
	}
	switch strings.ToLower(get("order")) {
	case "", "desc":
	case "asc":
		opts = append(opts, lookup.WithSortOrder(lookup.SortByUpdatedAsc))
	default:
		return nil, stdErrors.New("order 仅支持 asc/desc")
	}
	if q := get("q"); q != "" {
		opts = append(opts, lookup.WithQuery(q))
	}
	return opts, nil
}

// parseTimestamp 接受 Unix 秒或 RFC3339 时间。
func parseTimestamp(raw string) (time.Time, error) {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, stdErrors.New("时间参数需为 Unix 秒或 RFC3339 格式")
	}
	return ts, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
