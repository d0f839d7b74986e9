package service

import (
	"errors"
	"fmt"
	"strings"

	"lab-sample-intake/internal/metrics"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"
	"lab-sample-intake/pkg/utils"

	"go.uber.org/zap"
)

type SignatureService struct {
	signatureRepo *repository.SignatureRepository
	auditRepo     *repository.AuditRepository
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewSignatureService(signatureRepo *repository.SignatureRepository, auditRepo *repository.AuditRepository, m *metrics.Metrics, logger *zap.Logger) *SignatureService {
	return &SignatureService{
		signatureRepo: signatureRepo,
		auditRepo:     auditRepo,
		metrics:       m,
		logger:        logger,
	}
}

// VerifyPIN checks pin against every active signature. A well-formed PIN
// that matches nobody is not an error; IsValid is false.
func (s *SignatureService) VerifyPIN(pin string) (*models.PINVerifyResponse, error) {
	if !utils.ValidPIN(pin) {
		s.metrics.PINVerifications.WithLabelValues("malformed").Inc()
		return nil, ErrInvalidPINFormat
	}

	// Try to match the PIN against stored hashes
	sig, err := s.match(pin)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		s.metrics.PINVerifications.WithLabelValues("invalid").Inc()
		return &models.PINVerifyResponse{IsValid: false}, nil
	}

	s.metrics.PINVerifications.WithLabelValues("valid").Inc()
	return &models.PINVerifyResponse{
		IsValid:        true,
		Name:           sig.Name,
		SignatureImage: sig.SignatureImage,
	}, nil
}

func (s *SignatureService) match(pin string) (*models.Signature, error) {
	// Get all active signatures
	sigs, err := s.signatureRepo.GetActiveSignatures()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signatures: %w", err)
	}
	for i := range sigs {
		// Compare the plain PIN with the hashed PIN
		if utils.ComparePassword(sigs[i].PinHash, pin) {
			return &sigs[i], nil
		}
	}
	return nil, nil
}

// CreateSignature registers a technician signature protected by pin
func (s *SignatureService) CreateSignature(adminID uint, name, pin, image string) (*models.Signature, error) {
	name = strings.TrimSpace(name)
	if !utils.ValidPIN(pin) {
		return nil, ErrInvalidPINFormat
	}

	// Check if the name is already registered
	if _, err := s.signatureRepo.GetSignatureByName(name); err == nil {
		return nil, ErrSignatureExists
	} else if !errors.Is(err, repository.ErrSignatureNotFound) {
		return nil, fmt.Errorf("failed to check signature name: %w", err)
	}

	// a PIN must identify exactly one technician
	existing, err := s.match(pin)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPINInUse
	}

	// Hash the PIN for storage
	pinHash, err := utils.HashPassword(pin)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	// Create the signature record
	sig := &models.Signature{
		Name:           name,
		PinHash:        pinHash,
		SignatureImage: image,
		IsActive:       true,
	}
	if err := s.signatureRepo.CreateSignature(sig); err != nil {
		return nil, fmt.Errorf("failed to create signature: %w", err)
	}

	// Audit log
	_ = s.auditRepo.CreateAuditLog(&adminID, "signature_created", fmt.Sprintf("Signature registered for %s", name))
	s.logger.Info("signature registered", zap.String("name", name), zap.Uint("admin_id", adminID))

	return sig, nil
}
