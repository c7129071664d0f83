package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

type TOTPService struct {
	userRepo *repositories.UserRepository
	issuer   string
}

func NewTOTPService(userRepo *repositories.UserRepository, issuer string) *TOTPService {
	if issuer == "" {
		issuer = "POS"
	}
	return &TOTPService{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// GenerateSetup creates a new TOTP secret and QR code for a user
func (s *TOTPService) GenerateSetup(ctx context.Context, userID uuid.UUID) (*models.TOTPSetupResponse, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := generateKey(s.issuer, user.Email)
	if err != nil {
		return nil, err
	}

	// Store the secret (not yet enabled)
	if err := s.userRepo.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrCode, err := qrDataURI(key)
	if err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      qrCode,
		Issuer:      s.issuer,
		AccountName: user.Email,
	}, nil
}

// Enable verifies a code against the pending secret and turns 2FA on.
func (s *TOTPService) Enable(ctx context.Context, userID uuid.UUID, req *models.TOTPCodeRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return ErrNoTOTPSecret
	}
	if !totp.Validate(req.Code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.userRepo.EnableTOTP(ctx, userID)
}

// Disable disables 2FA for a user after verifying password and current TOTP code
func (s *TOTPService) Disable(ctx context.Context, userID uuid.UUID, req *models.TOTPDisableRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return ErrTOTPNotEnabled
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return ErrInvalidPassword
	}
	if !totp.Validate(req.Code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.userRepo.DisableTOTP(ctx, userID)
}

func generateKey(issuer, account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

// qrDataURI renders the key's otpauth URL as a base64 PNG data URI.
func qrDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
