package directory

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	// CodeLength is the number of characters in an office code.
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeGenerator returns a candidate office code.
type CodeGenerator func() (string, error)

// RandomCode draws CodeLength characters uniformly from uppercase letters and digits.
func RandomCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode trims and upper-cases a user-supplied office code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
