package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/email"
	"manoya/internal/repository"
)

var (
	ErrCodeNotRequested = errors.New("verification code not requested")
	ErrCodeExpired      = errors.New("verification code expired")
	ErrCodeMismatch     = errors.New("verification code mismatch")
	ErrEmailSendFailure = errors.New("email send failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrCaptureInvalid   = errors.New("capture invalid")
)

const (
	codeTTL         = 10 * time.Minute
	maxCaptureBytes = 5 << 20
	dataRefAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Verifier implementa el desafio de email y la recepcion de capturas de identidad.
type Verifier struct {
	fixedCode string
	sender    email.Sender
	limiter   OTPRateLimiter
	captures  repository.CaptureRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewVerifier con fixedCode no vacio entra en modo mock: el codigo es siempre el
// mismo y el envio de email es best effort.
func NewVerifier(fixedCode string, sender email.Sender, limiter OTPRateLimiter, captures repository.CaptureRepository, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewOTPRateLimiter(codeTTL, 3)
	}
	if captures == nil {
		captures = repository.NewMemoryCaptureRepository()
	}
	return &Verifier{
		fixedCode: strings.TrimSpace(fixedCode),
		sender:    sender,
		limiter:   limiter,
		captures:  captures,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// IssueCode genera un codigo nuevo, lo guarda hasheado en v y lo envia por email.
// Si el envio falla fuera del modo mock, v no se modifica.
func (vf *Verifier) IssueCode(ctx context.Context, v *domain.Verification) error {
	addr := normalizeEmail(v.Email)
	if addr == "" || !strings.Contains(addr, "@") {
		return ErrInvalidEmail
	}

	code, hash, err := vf.newCode()
	if err != nil {
		return err
	}
	expiresAt := vf.now().Add(codeTTL)

	if err := vf.send(ctx, addr, code, expiresAt); err != nil {
		if vf.fixedCode == "" {
			return err
		}
		vf.logger.Warn("verification email not sent, fixed code mode", zap.String("email", addr), zap.Error(err))
	}

	v.Email = addr
	v.CodeHash = hash
	v.CodeExpiresAt = &expiresAt
	return nil
}

// ResendCode es IssueCode con limite de frecuencia por email.
func (vf *Verifier) ResendCode(ctx context.Context, v *domain.Verification) error {
	if !vf.limiter.Allow(normalizeEmail(v.Email)) {
		return ErrRateLimited
	}
	return vf.IssueCode(ctx, v)
}

func (vf *Verifier) send(ctx context.Context, addr, code string, expiresAt time.Time) error {
	if vf.sender == nil {
		return ErrEmailSendFailure
	}
	if err := vf.sender.SendVerificationCode(ctx, addr, code, expiresAt); err != nil {
		vf.logger.Warn("send verification code failed", zap.Error(err), zap.String("email", addr))
		return ErrEmailSendFailure
	}
	return nil
}

// CheckCode compara el codigo ingresado con el hash guardado. No modifica v:
// los reintentos son ilimitados mientras el codigo no venza.
func (vf *Verifier) CheckCode(v *domain.Verification, code string) error {
	if v == nil || v.CodeHash == "" || v.CodeExpiresAt == nil {
		return ErrCodeNotRequested
	}
	if vf.now().After(*v.CodeExpiresAt) {
		return ErrCodeExpired
	}
	code = strings.TrimSpace(code)
	if !isValidCode(code) || !verifyCode(code, v.CodeHash) {
		return ErrCodeMismatch
	}
	return nil
}

func (vf *Verifier) newCode() (string, string, error) {
	code := vf.fixedCode
	if code == "" {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", "", err
		}
		code = fmt.Sprintf("%06d", n.Int64())
	}
	hash, err := hashCode(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}

func hashCode(code string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	sum := sha256.Sum256([]byte(saltStr + ":" + code))
	return saltStr + ":" + base64.StdEncoding.EncodeToString(sum[:]), nil
}

func verifyCode(code, stored string) bool {
	saltStr, expected, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	sum := sha256.Sum256([]byte(saltStr + ":" + code))
	got := base64.StdEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

func isValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func normalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// StoreCapture decodifica una captura de camara en formato data URL, valida que
// sea una imagen y la guarda. Devuelve la referencia que queda en la sesion.
func (vf *Verifier) StoreCapture(ctx context.Context, sessionID string, kind domain.CaptureKind, dataURL string) (domain.CaptureRef, error) {
	payload, err := decodeDataURL(dataURL)
	if err != nil {
		return domain.CaptureRef{}, err
	}
	mt := mimetype.Detect(payload)
	if !strings.HasPrefix(mt.String(), "image/") {
		return domain.CaptureRef{}, fmt.Errorf("%w: content type %s", ErrCaptureInvalid, mt.String())
	}

	id, err := gonanoid.Generate(dataRefAlphabet, 16)
	if err != nil {
		return domain.CaptureRef{}, err
	}
	ref := fmt.Sprintf("biometria/%s/%s_%s", sessionID, kind, id)
	if err := vf.captures.Save(ctx, repository.Capture{
		DataRef:     ref,
		SessionID:   sessionID,
		Kind:        string(kind),
		ContentType: mt.String(),
		Payload:     payload,
		CreatedAt:   vf.now(),
	}); err != nil {
		return domain.CaptureRef{}, fmt.Errorf("save capture: %w", err)
	}
	return domain.CaptureRef{
		Kind:        kind,
		DataRef:     ref,
		ContentType: mt.String(),
		Size:        len(payload),
	}, nil
}

func decodeDataURL(dataURL string) ([]byte, error) {
	header, data, ok := strings.Cut(strings.TrimSpace(dataURL), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected base64 data url", ErrCaptureInvalid)
	}
	if base64.StdEncoding.DecodedLen(len(data)) > maxCaptureBytes+3 {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrCaptureInvalid, maxCaptureBytes)
	}
	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureInvalid, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrCaptureInvalid)
	}
	if len(payload) > maxCaptureBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrCaptureInvalid, maxCaptureBytes)
	}
	return payload, nil
}

// OTPRateLimiter limita la frecuencia de reenvios de codigo por clave.
type OTPRateLimiter interface {
	Allow(key string) bool
}

type otpRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &otpRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *otpRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}
