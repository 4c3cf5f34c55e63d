// File: internal/dga/service.go
package dga

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"dga_gateway_backend/internal/config"
	"dga_gateway_backend/internal/egov"
	"dga_gateway_backend/internal/user"

	"go.uber.org/zap"
)

// Step identifies which stage of the login flow a failure belongs to.
// Provider rejections and local database faults need different operator
// responses, so every failure carries one.
type Step string

const (
	StepValidate     Step = "validate"
	StepDeproc       Step = "deproc"
	StepNotification Step = "notification"
	StepDB           Step = "db"
)

// APIVersion selects which of the two historical route contracts is in
// effect. They drifted on the deproc field casing, on when a login pushes a
// notification, and on how an unparseable citizen payload is reported, so
// both behaviors are kept explicit rather than merged.
type APIVersion int

const (
	// VersionPrimary is the /api/dga contract with the {ok, saved|error, step} envelope.
	VersionPrimary APIVersion = iota
	// VersionLegacy is the ?op= contract with the older {status|success, ...} envelopes.
	VersionLegacy
)

// FlowError is a step-tagged failure from the orchestration.
type FlowError struct {
	Step       Step // empty for local input/configuration failures
	StatusCode int
	Message    string
	Detail     string
	// Soft marks an expected negative outcome (unparseable citizen
	// payload, usually an expired or mismatched token). The primary
	// contract reports it with HTTP 200 and ok=false, not as a fault.
	Soft bool
}

func (e *FlowError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("login flow failed at step %s: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("login flow failed: %s", e.Message)
}

// ProviderClient is the outbound surface of the eGov client, abstracted so
// the orchestrator can be tested against a double.
type ProviderClient interface {
	ValidateToken(ctx context.Context) (string, error)
	DecryptPayload(ctx context.Context, appID, mToken, token string, casing egov.DeprocCasing) (*egov.DeprocResult, error)
	SendNotification(ctx context.Context, appID, userID, message, token string) (interface{}, error)
}

// Service defines the interface for the login/notify orchestration.
type Service interface {
	Login(ctx context.Context, appID, mToken string, version APIVersion) (*user.User, *FlowError)
	Notify(ctx context.Context, appID, userID, message string) (interface{}, *FlowError)
}

const (
	// Pushed after a successful login when the citizen opted in.
	loginNotifyTemplate = "คุณ %s เข้าสู่ระบบสำเร็จ"
	// Default for the notify-only operation when the caller sends no message.
	defaultNotifyMessage = "ทดสอบแจ้งเตือนจากระบบ"

	missingCredentialsMessage = "Missing CONSUMER_KEY / CONSUMER_SECRET / AGENT_ID"
)

// ServiceImplementation implements the Service interface.
type ServiceImplementation struct {
	client ProviderClient
	repo   user.Repository
	cfg    *config.Config
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new login orchestration service.
func NewService(
	client ProviderClient,
	repo user.Repository,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		client: client,
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("DGAService"),
	}
}

// Login runs the full orchestration: validate the consumer credentials with
// the provider, deproc the mini-app token into a citizen record, push a
// notification (best-effort), and upsert the citizen into the user store.
// Steps are strictly sequential and terminal on failure, except the
// notification step which never aborts the flow.
func (s *ServiceImplementation) Login(ctx context.Context, appID, mToken string, version APIVersion) (*user.User, *FlowError) {
	if strings.TrimSpace(appID) == "" || strings.TrimSpace(mToken) == "" {
		return nil, &FlowError{StatusCode: http.StatusBadRequest, Message: "Missing Data"}
	}

	if !s.cfg.HasEgovCredentials() {
		s.logger.Error("eGov credentials are not configured")
		return nil, &FlowError{StatusCode: http.StatusInternalServerError, Message: missingCredentialsMessage}
	}

	token, err := s.client.ValidateToken(ctx)
	if err != nil {
		s.logger.Warn("eGov token validation failed", zap.Error(err))
		return nil, flowErrorFromCall(err, StepValidate, "validate failed")
	}

	casing := egov.DeprocCasingAppId
	if version == VersionLegacy {
		casing = egov.DeprocCasingAppid
	}

	deproc, err := s.client.DecryptPayload(ctx, appID, mToken, token, casing)
	if err != nil {
		s.logger.Warn("eGov deproc failed", zap.Error(err), zap.String("appId", appID))
		return nil, flowErrorFromCall(err, StepDeproc, "deproc failed")
	}

	citizen := egov.ExtractCitizenData(deproc.Payload)
	if citizen == nil {
		fe := &FlowError{
			Step:    StepDeproc,
			Message: "Deproc returned NULL (Token Expired / invalid payload)",
			Detail:  deproc.Excerpt,
		}
		if version == VersionPrimary {
			// An unparseable citizen payload is an expected negative
			// outcome on the primary contract, not a system fault.
			fe.Soft = true
			fe.StatusCode = http.StatusOK
		} else {
			fe.StatusCode = http.StatusBadGateway
		}
		s.logger.Info("Deproc payload did not contain a citizen record", zap.String("appId", appID))
		return nil, fe
	}

	// The legacy contract pushes a login notification unconditionally; the
	// primary contract honors the citizen's opt-in flag.
	if version == VersionLegacy || citizen.Notification {
		message := fmt.Sprintf(loginNotifyTemplate, citizenDisplayName(citizen))
		if _, err := s.client.SendNotification(ctx, appID, citizen.UserID, message, token); err != nil {
			// Non-fatal: the authentication outcome is already determined.
			s.logger.Warn("eGov notification push failed",
				zap.Error(err),
				zap.String("userId", citizen.UserID),
			)
		}
	}

	saved, err := s.repo.Upsert(ctx, user.FromCitizen(citizen))
	if err != nil {
		s.logger.Error("Failed to upsert user after login", zap.Error(err), zap.String("userId", citizen.UserID))
		return nil, &FlowError{
			Step:       StepDB,
			StatusCode: http.StatusInternalServerError,
			Message:    "could not save user",
			Detail:     err.Error(),
		}
	}

	s.logger.Info("Login successful", zap.String("userId", saved.UserID), zap.Uint("id", saved.ID))
	return saved, nil
}

// Notify implements the notify-only operation of the legacy contract:
// validate the consumer credentials, then push an arbitrary message to one
// user. Unlike the login flow, a push failure here is the whole point of
// the call and is surfaced.
func (s *ServiceImplementation) Notify(ctx context.Context, appID, userID, message string) (interface{}, *FlowError) {
	if strings.TrimSpace(appID) == "" || strings.TrimSpace(userID) == "" {
		return nil, &FlowError{StatusCode: http.StatusBadRequest, Message: "Missing appId or userId"}
	}

	if !s.cfg.HasEgovCredentials() {
		s.logger.Error("eGov credentials are not configured")
		return nil, &FlowError{StatusCode: http.StatusInternalServerError, Message: missingCredentialsMessage}
	}

	token, err := s.client.ValidateToken(ctx)
	if err != nil {
		s.logger.Warn("eGov token validation failed", zap.Error(err))
		return nil, flowErrorFromCall(err, StepValidate, "validate failed")
	}

	if message == "" {
		message = defaultNotifyMessage
	}

	result, err := s.client.SendNotification(ctx, appID, userID, message, token)
	if err != nil {
		s.logger.Warn("eGov notification push failed", zap.Error(err), zap.String("userId", userID))
		return nil, flowErrorFromCall(err, StepNotification, "Notification failed")
	}

	return result, nil
}

// flowErrorFromCall maps a provider client error onto a 502 FlowError,
// preserving the HTTP status and bounded excerpt when the provider
// answered at all.
func flowErrorFromCall(err error, step Step, fallback string) *FlowError {
	fe := &FlowError{
		Step:       step,
		StatusCode: http.StatusBadGateway,
		Message:    fallback,
	}
	var callErr *egov.CallError
	if errors.As(err, &callErr) {
		call := callErr.Call
		if step == StepNotification {
			// The notify envelope capitalizes this call name.
			call = "Notification"
		}
		fe.Message = fmt.Sprintf("%s HTTP %d", call, callErr.StatusCode)
		fe.Detail = callErr.Excerpt
	} else {
		fe.Detail = err.Error()
	}
	return fe
}

func citizenDisplayName(c *egov.CitizenData) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.UserID
	}
	return name
}
