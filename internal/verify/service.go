package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dentalis/clinic-platform/internal/notify"
	"github.com/dentalis/clinic-platform/internal/patients"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

const sessionTTL = 30 * 24 * time.Hour

// PatientRegistry persists confirmed patients.
type PatientRegistry interface {
	Upsert(ctx context.Context, p *patients.Patient) (uuid.UUID, error)
}

// Service drives the request-code / confirm registration flow.
type Service struct {
	codes    *CodeStore
	registry PatientRegistry
	email    notify.EmailSender
	secret   string
	logger   *logging.Logger
}

// NewService creates the registration service.
func NewService(codes *CodeStore, registry PatientRegistry, email notify.EmailSender, secret string, logger *logging.Logger) *Service {
	if codes == nil {
		panic("verify: code store required")
	}
	if registry == nil {
		panic("verify: patient registry required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		codes:    codes,
		registry: registry,
		email:    email,
		secret:   secret,
		logger:   logger,
	}
}

// RequestCode issues a verification code and emails it to the address.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return fmt.Errorf("verify: invalid email %q", email)
	}

	code, err := s.codes.Issue(ctx, email)
	if err != nil {
		return err
	}

	if s.email == nil {
		s.logger.Warn("verify: email sender not configured, code not delivered", "email", email)
		return nil
	}
	msg := notify.EmailMessage{
		To:      email,
		Subject: "Your verification code",
		Body: fmt.Sprintf(`Your verification code is %s.

It expires shortly. If you did not request it, ignore this email.`, code),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("verify: deliver code: %w", err)
	}
	s.logger.Info("verification code sent", "email", email)
	return nil
}

// ConfirmRequest carries the patient details supplied with the code.
type ConfirmRequest struct {
	Email     string
	Code      string
	FirstName string
	LastName  string
	Phone     string
}

// Confirm validates the code, registers the patient and returns a signed
// session token.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (token string, patientID uuid.UUID, err error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.codes.Check(ctx, email, req.Code); err != nil {
		return "", uuid.Nil, err
	}

	patientID, err = s.registry.Upsert(ctx, &patients.Patient{
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("verify: register patient: %w", err)
	}

	token, err = s.issueToken(patientID)
	if err != nil {
		return "", uuid.Nil, err
	}
	s.logger.Info("patient registered", "patient_id", patientID)
	return token, patientID, nil
}

func (s *Service) issueToken(patientID uuid.UUID) (string, error) {
	if s.secret == "" {
		return "", fmt.Errorf("verify: session secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   patientID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("verify: sign session token: %w", err)
	}
	return signed, nil
}
