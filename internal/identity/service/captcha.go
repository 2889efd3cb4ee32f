package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"campusplace/internal/identity/models"
	dErrors "campusplace/pkg/domain-errors"
)

// Captcha issues an arithmetic challenge for the login form. The answer is
// held server-side under the returned ID and is consumable exactly once
// within captchaTTL.
func (s *Service) Captcha() (id, question string, err error) {
	a, err := randomDigit(9)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate captcha")
	}
	b, err := randomDigit(9)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate captcha")
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate captcha")
	}
	id = hex.EncodeToString(buf)

	s.nonces.Put("captcha:"+id, strconv.Itoa(a+b), captchaTTL)
	return id, fmt.Sprintf("What is %d + %d?", a, b), nil
}

// checkCaptcha validates the challenge answer when the deployment demands
// one. The stored answer is consumed on first presentation, right or wrong,
// so a challenge cannot be brute-forced by replaying its ID.
func (s *Service) checkCaptcha(req *models.LoginRequest) error {
	if !s.captchaRequired {
		return nil
	}
	if req.CaptchaID == "" || req.CaptchaAnswer == "" {
		return dErrors.New(dErrors.CodeValidation, "captcha is required")
	}
	answer, ok := s.nonces.Consume("captcha:" + req.CaptchaID)
	if !ok || answer != strings.TrimSpace(req.CaptchaAnswer) {
		return dErrors.New(dErrors.CodeValidation, "captcha answer is incorrect")
	}
	return nil
}

// randomDigit returns a uniform value in [1, max].
func randomDigit(max int64) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 1, nil
}
