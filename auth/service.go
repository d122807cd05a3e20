package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/directory"
	"github.com/jrsteele09/go-intercom-bridge/gateway"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/jrsteele09/go-intercom-bridge/store"
	"github.com/pkg/errors"
)

// Sender performs upstream requests.
type Sender interface {
	Send(ctx context.Context, req gateway.Request) (gateway.Result, error)
}

// Repos holds the persistence dependencies of the Service.
type Repos struct {
	Store store.Repo // Token and routing state
}

// Service runs the account's sign-in and token lifecycle against the
// upstream cloud.
type Service struct {
	repos       Repos
	sender      Sender
	session     *sessions.Session
	directory   *directory.Directory
	endpoints   gateway.Endpoints
	tempKeyOpts directory.TempKeyOptions
	nowTime     func() time.Time // injectable for testing
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithEndpoints(e gateway.Endpoints) ServiceOption {
	return func(s *Service) {
		s.endpoints = e
	}
}

func WithTempKeyOptions(opts directory.TempKeyOptions) ServiceOption {
	return func(s *Service) {
		s.tempKeyOpts = opts
	}
}

// NewService validates its dependencies and builds a Service.
func NewService(
	repos Repos,
	sender Sender,
	session *sessions.Session,
	dir *directory.Directory,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Store == nil {
		return nil, errors.New("[NewService] Store repo is required")
	}
	if sender == nil {
		return nil, errors.New("[NewService] sender is required")
	}
	if session == nil {
		return nil, errors.New("[NewService] session is required")
	}
	if dir == nil {
		return nil, errors.New("[NewService] directory is required")
	}

	s := &Service{
		repos:     repos,
		sender:    sender,
		session:   session,
		directory: dir,
		endpoints: gateway.DefaultEndpoints(),
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Service) Session() *sessions.Session {
	return s.session
}

func (s *Service) Directory() *directory.Directory {
	return s.directory
}
