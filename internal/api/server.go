package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"ProfileFinder/internal/auth"
	"ProfileFinder/internal/lookup"
	"ProfileFinder/internal/observability/metrics"
	"ProfileFinder/internal/profile"
	"ProfileFinder/pkg/logger"
)

const (
	defaultShutdownTimeout   = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxWait           = 30 * time.Second
	waitPollInterval         = 100 * time.Millisecond
)

// Server 负责暴露 REST 接口，供外部提交和查询主页查找任务。
type Server struct {
	addr              string
	lookups           *lookup.Service
	baseURL           string
	shutdownTimeout   time.Duration
	readHeaderTimeout time.Duration
	maxWait           time.Duration
	metricsHandler    http.Handler
	auth              *auth.Service
	logger            *slog.Logger
}

// Option 定义 Server 的可选配置。
type Option func(*Server)

// WithShutdownTimeout 设置优雅关闭的等待时间。
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithReadHeaderTimeout 设置读取请求头的超时时间。
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readHeaderTimeout = d
		}
	}
}

// WithMaxWait 限制 ?wait= 参数允许阻塞的最长时间。
func WithMaxWait(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.maxWait = d
		}
	}
}

// WithProfileBaseURL 指定生成主页链接时使用的前缀。
func WithProfileBaseURL(base string) Option {
	return func(s *Server) {
		if base != "" {
			s.baseURL = base
		}
	}
}

// WithMetricsHandler 在同一端口挂载 /metrics。
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = handler
	}
}

// WithAuth 为 /api/ 路由启用 token 认证，/healthz 与 /metrics 不受影响。
func WithAuth(svc *auth.Service) Option {
	return func(s *Server) {
		s.auth = svc
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, svc *lookup.Service, opts ...Option) *Server {
	s := &Server{
		addr:              addr,
		lookups:           svc,
		baseURL:           profile.DefaultBaseURL,
		shutdownTimeout:   defaultShutdownTimeout,
		readHeaderTimeout: defaultReadHeaderTimeout,
		maxWait:           defaultMaxWait,
		logger:            logger.Named("api"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler 返回带有指标采集的路由。
func (s *Server) Handler() http.Handler {
	guard := s.auth.Middleware(auth.MiddlewareConfig{RequiredPermissions: auth.LookupPermissions()})
	mux := http.NewServeMux()
	mux.Handle("/api/v1/lookups", instrument("lookups", guard(http.HandlerFunc(s.handleLookups))))
	mux.Handle("/api/v1/lookups/", instrument("lookup_detail", guard(http.HandlerFunc(s.handleLookupDetail))))
	mux.Handle("/api/v1/usernames", instrument("usernames", guard(http.HandlerFunc(s.handleUsernames))))
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	return mux
}

// Start 启动 HTTP 服务（同时支持明文 HTTP/2），直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           h2c.NewHandler(withContext(ctx, s.Handler()), &http2.Server{}),
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API 服务启动", slog.String("addr", s.addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "服务已关闭")
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument 记录每个路由的请求数量、错误与耗时。
func instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)
		metrics.ObserveHTTPRequest(name, r.Method, rec.status, time.Since(started))
	})
}
