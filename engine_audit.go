package vms

import (
	"context"
	"errors"
)

const (
	auditActionLogin            = "LOGIN"
	auditActionLogout           = "LOGOUT"
	auditActionRefresh          = "REFRESH"
	auditActionRegisterAdmin    = "REGISTER_ADMIN"
	auditActionCreateSupervisor = "CREATE_SUPERVISOR"
	auditActionCreateStaff      = "CREATE_STAFF"
	auditActionUpdatePassword   = "UPDATE_PASSWORD"
	auditActionUpdateProfile    = "UPDATE_PROFILE"
)

var auditModules = map[string]string{
	auditActionLogin:            "AUTH",
	auditActionLogout:           "AUTH",
	auditActionRefresh:          "AUTH",
	auditActionRegisterAdmin:    "ADMIN",
	auditActionCreateSupervisor: "SUPERVISOR",
	auditActionCreateStaff:      "STAFF",
	auditActionUpdatePassword:   "USER",
	auditActionUpdateProfile:    "USER",
}

// AuditErrorCode is the stable error label written into audit events.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrAccountNotFound    AuditErrorCode = "account_not_found"
	auditErrAccountInactive    AuditErrorCode = "account_inactive"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrChallengeRequired  AuditErrorCode = "challenge_required"
	auditErrChallengeInvalid   AuditErrorCode = "challenge_invalid"
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrRefreshRevoked     AuditErrorCode = "refresh_revoked"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrPasswordReuse      AuditErrorCode = "password_reuse"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	action string,
	success bool,
	actorID string,
	actorRole string,
	targetID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Action:    action,
		ActorID:   actorID,
		ActorRole: actorRole,
		TargetID:  targetID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// auditOrigin reads the request origin the transport attached to ctx.
func auditOrigin(ctx context.Context) (string, string) {
	return ClientIPFromContext(ctx), userAgentFromContext(ctx)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrChallengeRequired):
		return auditErrChallengeRequired
	case errors.Is(err, ErrChallengeInvalid):
		return auditErrChallengeInvalid
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrTokenClockSkew):
		return auditErrUnauthenticated
	case errors.Is(err, ErrRefreshRevoked):
		return auditErrRefreshRevoked
	case errors.Is(err, ErrEmailTaken):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	default:
		return auditErrInternal
	}
}
