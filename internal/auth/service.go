package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ProfileFinder/pkg/logger"
)

type credential struct {
	digest  [sha256.Size]byte
	subject *Subject
}

// Service 负责 API 请求的身份验证和授权。
type Service struct {
	mode        Mode
	credentials []credential
	audit       *slog.Logger
}

// NewService 校验配置并构造认证服务。
func NewService(cfg Config) (*Service, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(string(cfg.Mode))))
	if mode == "" {
		mode = ModeDisabled
	}
	svc := &Service{mode: mode, audit: logger.Audit()}

	switch mode {
	case ModeDisabled:
		return svc, nil
	case ModeToken:
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}

	if len(cfg.Tokens) == 0 {
		return nil, errors.New("token mode requires at least one token")
	}
	for i, token := range cfg.Tokens {
		digest, err := tokenDigest(token)
		if err != nil {
			return nil, fmt.Errorf("auth.tokens[%d]: %w", i, err)
		}
		name := token.Name
		if name == "" {
			name = fmt.Sprintf("token-%d", i)
		}
		subject := &Subject{Name: name, Permissions: token.Permissions, Disabled: token.Disabled}
		subject.normalise()
		svc.credentials = append(svc.credentials, credential{digest: digest, subject: subject})
	}
	return svc, nil
}

func tokenDigest(token Token) ([sha256.Size]byte, error) {
	var digest [sha256.Size]byte
	switch {
	case token.Secret != "":
		return sha256.Sum256([]byte(token.Secret)), nil
	case token.SHA256 != "":
		raw, err := hex.DecodeString(strings.TrimSpace(token.SHA256))
		if err != nil || len(raw) != sha256.Size {
			return digest, errors.New("sha256 must be a 64 character hex digest")
		}
		copy(digest[:], raw)
		return digest, nil
	default:
		return digest, errors.New("secret or sha256 is required")
	}
}

// Mode 返回当前工作模式。
func (s *Service) Mode() Mode {
	if s == nil {
		return ModeDisabled
	}
	return s.mode
}

// Enabled 报告是否需要认证。
func (s *Service) Enabled() bool {
	return s.Mode() != ModeDisabled
}

// AuthenticateRequest 从请求头中解析 token 并返回对应的主体。
func (s *Service) AuthenticateRequest(_ context.Context, r *http.Request) (*Subject, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		raw = strings.TrimSpace(r.Header.Get("X-API-Key"))
	}
	if raw == "" {
		return nil, ErrMissingToken
	}
	digest := sha256.Sum256([]byte(raw))

	var match *Subject
	for _, cred := range s.credentials {
		if subtle.ConstantTimeCompare(digest[:], cred.digest[:]) == 1 {
			match = cred.subject
		}
	}
	if match == nil {
		return nil, ErrInvalidToken
	}
	if match.Disabled {
		return nil, ErrSubjectRevoked
	}
	return match, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
