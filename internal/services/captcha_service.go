package services

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"digitalaxis/internal/utils"
)

// CaptchaService 登录表单上的算术验证码
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// GenerateMathProblem returns a display string (e.g. "3 + 5") and the integer answer.
// The answer is kept in the session and checked with Verify.
func (s *CaptchaService) GenerateMathProblem() (string, int) {
	s.mu.Lock()
	a, b, op := s.rnd.IntN(10), s.rnd.IntN(10), s.rnd.IntN(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	// 减法保证结果非负
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}

// Verify 比较用户输入与答案，非数字输入视为错误
func (s *CaptchaService) Verify(expected int, input string) bool {
	return utils.AtoiOr(input, -1) == expected
}
