package vms

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/Code4Bharat1/VMS-BACKEND/internal/audit"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/challenge"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/flows"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/rate"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/stores"
	"github.com/Code4Bharat1/VMS-BACKEND/jwt"
	"github.com/Code4Bharat1/VMS-BACKEND/password"
	"github.com/Code4Bharat1/VMS-BACKEND/session"
	"github.com/sirupsen/logrus"
)

// Engine runs login, refresh, logout and request authentication for the
// check-in backend.
//
// Engine instances are configured once through Builder and then treated as
// immutable. All methods are safe for concurrent use.
type Engine struct {
	config     Config
	accounts   AccountStore
	kv         stores.Store
	hasher     *password.Set
	jwtManager *jwt.Manager
	tracker    *rate.Tracker
	challenges *challenge.Manager
	sessions   *session.Store
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	logger     logrus.FieldLogger
	now        func() time.Time
	flows      flows.Service
}

// Close flushes pending audit events and stops the dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// SweepExpired drops expired attempt counters and challenges from the
// in-process store. It returns the number of entries removed, and 0 when the
// engine is backed by Redis.
func (e *Engine) SweepExpired() int {
	if e == nil {
		return 0
	}
	mem, ok := e.kv.(*stores.MemoryStore)
	if !ok {
		return 0
	}
	return mem.Sweep()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

func (e *Engine) warn(format string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warnf(format, args...)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// IssueChallenge creates a single-use image challenge. The answer stays on
// the server.
func (e *Engine) IssueChallenge(ctx context.Context) (*Challenge, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	c, err := e.challenges.Issue(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	e.metricInc(MetricChallengeIssued)

	return &Challenge{
		ID:        c.ID,
		Image:     c.Image,
		ExpiresAt: c.ExpiresAt,
	}, nil
}

// Login authenticates by email and password and binds a new refresh
// reference to the account, revoking any earlier one.
//
// Every failure after the account lookup is a *LoginError whose
// ChallengeRequired flag tells the client to fetch a challenge first.
// Unknown emails return ErrAccountNotFound and are not counted.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	res := e.flows.Login(ctx, flows.LoginInput{
		Email:           req.Email,
		Password:        req.Password,
		ChallengeID:     req.ChallengeID,
		ChallengeAnswer: req.ChallengeAnswer,
		ClientKey:       ClientIPFromContext(ctx),
	})

	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureValidation, flows.LoginFailureAccountNotFound:
		return nil, res.Err
	case flows.LoginFailureInactive,
		flows.LoginFailureInvalidCredentials,
		flows.LoginFailureChallengeRequired,
		flows.LoginFailureChallengeInvalid:
		return nil, &LoginError{Err: res.Err, ChallengeRequired: res.ChallengeRequired}
	case flows.LoginFailureChallengeBackend, flows.LoginFailureTracker:
		e.warn("vms: login backend failure: %v", res.Err)
		return nil, &LoginError{Err: fmt.Errorf("%w: %v", ErrInternal, res.Err), ChallengeRequired: res.ChallengeRequired}
	default:
		e.warn("vms: login failed: %v", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, res.Err)
	}

	return &LoginResult{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: e.now().Add(e.jwtManager.RefreshTTL()),
		Identity:         identityFromAccount(res.Account),
	}, nil
}

// Refresh mints a new access token from a refresh token that both verifies
// and equals the account's stored reference. With RotateOnRefresh the
// reference is replaced and the new refresh token returned as well.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	if res.Failure != flows.RefreshFailureNone {
		err := e.refreshError(res)
		e.metricInc(MetricRefreshFailure)
		if res.Failure == flows.RefreshFailureRevoked || res.Failure == flows.RefreshFailureAccountMissing {
			e.metricInc(MetricRefreshRevoked)
		}
		e.emitAudit(ctx, auditActionRefresh, false, res.Account.ID, res.Account.Role.String(), res.Account.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	out := &RefreshResult{AccessToken: res.AccessToken}
	if res.RefreshToken != "" {
		e.metricInc(MetricRefreshRotated)
		out.RefreshToken = res.RefreshToken
		out.RefreshExpiresAt = e.now().Add(e.jwtManager.RefreshTTL())
	}
	e.emitAudit(ctx, auditActionRefresh, true, res.Account.ID, res.Account.Role.String(), res.Account.ID, nil, func() map[string]string {
		return map[string]string{"rotated": fmt.Sprint(out.RefreshToken != "")}
	})

	return out, nil
}

func (e *Engine) refreshError(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureMissing, flows.RefreshFailureVerify:
		return ErrUnauthenticated
	case flows.RefreshFailureAccountMissing, flows.RefreshFailureRevoked:
		return ErrRefreshRevoked
	case flows.RefreshFailureInactive:
		return ErrAccountInactive
	default:
		e.warn("vms: refresh failed: %v", res.Err)
		return fmt.Errorf("%w: %v", ErrInternal, res.Err)
	}
}

// Logout clears the refresh reference of whichever account holds
// refreshToken. Empty, unknown and already cleared tokens succeed.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, refreshToken)
	if res.Err != nil {
		e.warn("vms: logout failed: %v", res.Err)
		err := fmt.Errorf("%w: %v", ErrInternal, res.Err)
		e.emitAudit(ctx, auditActionLogout, false, "", "", "", err, nil)
		return err
	}
	if res.AccountID == "" {
		return nil
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditActionLogout, true, res.AccountID, "", res.AccountID, nil, nil)
	return nil
}

// Authenticate verifies an access token and rebuilds the identity from the
// account store, so role and bay changes apply to tokens already issued.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricValidateLatency, start)

	res := e.flows.Validate(ctx, accessToken)
	switch res.Failure {
	case flows.ValidateFailureNone:
		return identityFromAccount(res.Account), nil
	case flows.ValidateFailureTokenClockSkew:
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrTokenClockSkew
	case flows.ValidateFailureInactive:
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrAccountInactive
	case flows.ValidateFailureLookup:
		e.metricInc(MetricAuthenticateFailure)
		e.warn("vms: account lookup failed: %v", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, res.Err)
	default:
		e.metricInc(MetricAuthenticateFailure)
		if errors.Is(res.Err, jwt.ErrIssuedInFuture) {
			return nil, ErrTokenClockSkew
		}
		return nil, ErrUnauthenticated
	}
}

// Authorize returns ErrForbidden unless identity holds one of roles. With no
// roles any authenticated identity passes.
func (e *Engine) Authorize(identity *Identity, roles ...Role) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if len(roles) == 0 || identity.HasRole(roles...) {
		return nil
	}
	e.metricInc(MetricAuthorizationDenied)
	return ErrForbidden
}
