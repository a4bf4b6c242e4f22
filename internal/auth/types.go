package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the authentication subsystem.
var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrPermissionDenied = errors.New("permission denied")
	ErrSubjectRevoked   = errors.New("token is disabled")
)

// Mode 表示认证方式。
type Mode string

const (
	// ModeDisabled 关闭认证，所有请求直接放行。
	ModeDisabled Mode = "disabled"
	// ModeToken 使用静态 API token（Bearer 或 X-API-Key）。
	ModeToken Mode = "token"
)

// Permissions understood by the lookup API.
const (
	PermissionLookupsRead  = "lookups:read"
	PermissionLookupsWrite = "lookups:write"
	// PermissionAll grants every permission.
	PermissionAll = "*"
)

// Config 描述认证配置。
type Config struct {
	Mode   Mode    `yaml:"mode"`
	Tokens []Token `yaml:"tokens"`
}

// Token 描述一个 API token。Secret 与 SHA256（十六进制摘要）二选一。
type Token struct {
	Name        string   `yaml:"name"`
	Secret      string   `yaml:"secret"`
	SHA256      string   `yaml:"sha256"`
	Permissions []string `yaml:"permissions"`
	Disabled    bool     `yaml:"disabled"`
}

// Subject is the caller identified by a token and passed to handlers through
// the request context.
type Subject struct {
	Name        string
	Permissions []string
	Disabled    bool

	permissionsSet map[string]struct{}
}

func (s *Subject) normalise() {
	if s == nil || s.permissionsSet != nil {
		return
	}
	s.permissionsSet = make(map[string]struct{}, len(s.Permissions))
	for _, perm := range s.Permissions {
		s.permissionsSet[strings.ToLower(strings.TrimSpace(perm))] = struct{}{}
	}
}

// HasPermission reports whether the subject has the specified permission.
func (s *Subject) HasPermission(permission string) bool {
	if s == nil {
		return false
	}
	s.normalise()
	if _, ok := s.permissionsSet[PermissionAll]; ok {
		return true
	}
	_, ok := s.permissionsSet[strings.ToLower(strings.TrimSpace(permission))]
	return ok
}

// Authorize returns ErrPermissionDenied unless every permission is held.
func (s *Subject) Authorize(permissions ...string) error {
	if s == nil {
		return ErrPermissionDenied
	}
	if s.Disabled {
		return ErrSubjectRevoked
	}
	for _, perm := range permissions {
		if !s.HasPermission(perm) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, perm)
		}
	}
	return nil
}
