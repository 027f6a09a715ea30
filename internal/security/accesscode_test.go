package security

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
)

func TestNewAccessCode_Format(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+-\d{4}$`)
	for i := 0; i < 200; i++ {
		code, err := NewAccessCode("IESA")
		if err != nil {
			t.Fatalf("NewAccessCode: %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, re)
		}
		n, _ := strconv.Atoi(strings.TrimPrefix(code, "IESA-"))
		if n < 1000 || n > 9999 {
			t.Fatalf("digits %d out of range", n)
		}
	}
}
