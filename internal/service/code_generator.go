package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/lshigami/Classtrail/config"
	"github.com/rs/zerolog/log"
)

const (
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	accessCodeHalf     = 4
	AccessCodeLength   = accessCodeHalf * 2
)

// CodeChecker reports whether an access code is already taken.
type CodeChecker interface {
	AccessCodeExists(ctx context.Context, code string) (bool, error)
}

type CodeGenerator interface {
	Generate() (string, error)
	AllocateUnique(ctx context.Context) (string, error)
}

type codeGenerator struct {
	checker     CodeChecker
	maxAttempts int
}

func NewCodeGenerator(checker CodeChecker, cfg *config.Config) CodeGenerator {
	attempts := cfg.Grading.AccessCodeMaxAttempts
	if attempts < config.MinAccessCodeAttempts {
		attempts = config.MinAccessCodeAttempts
	}
	return &codeGenerator{checker: checker, maxAttempts: attempts}
}

// Generate returns two random 4-character halves from [A-Z0-9].
func (g *codeGenerator) Generate() (string, error) {
	var b strings.Builder
	b.Grow(AccessCodeLength)
	for half := 0; half < 2; half++ {
		part, err := randomChars(accessCodeHalf)
		if err != nil {
			return "", err
		}
		b.WriteString(part)
	}
	return b.String(), nil
}

func (g *codeGenerator) AllocateUnique(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		taken, err := g.checker.AccessCodeExists(ctx, code)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("AllocateUnique: uniqueness check failed")
			continue
		}
		if !taken {
			return code, nil
		}
	}
	log.Error().Int("maxAttempts", g.maxAttempts).Msg("AllocateUnique: exhausted access code attempts")
	return "", ErrCodeExhaustion
}

func randomChars(n int) (string, error) {
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = accessCodeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// NormalizeAccessCode trims and upper-cases a user supplied code.
func NormalizeAccessCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != AccessCodeLength {
		return "", ErrInvalidAccessCode
	}
	return code, nil
}
