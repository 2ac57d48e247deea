package handler

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidEmail     = "유효한 이메일 주소를 입력해주세요."
	msgInvalidFrequency = "구독 빈도를 선택해주세요."
	msgConsentRequired  = "개인정보 수집 및 이용에 동의해주세요."
	msgInvalidRequest   = "잘못된 요청입니다."
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	registerOnce  sync.Once
	fieldMessages = map[string]string{
		"Email":          msgInvalidEmail,
		"Frequency":      msgInvalidFrequency,
		"Consent":        msgConsentRequired,
		"ProblemListIDs": msgInvalidRequest,
	}
)

// ValidEmail applies the subscriber address rules: one @, text on both
// sides, a dotted domain and no consecutive dots
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || strings.Count(email, "@") != 1 {
		return false
	}
	at := strings.Index(email, "@")
	if at == 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot == -1 || dot == len(domain)-1 {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	return emailPattern.MatchString(email)
}

func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("subscriber_email", func(fl validator.FieldLevel) bool {
			return ValidEmail(fl.Field().String())
		})
	})
}

// validationMessage turns the first failed field into the message shown to
// the subscriber
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].StructField()]; ok {
			return msg
		}
	}
	return msgInvalidRequest
}
