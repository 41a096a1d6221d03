// Package password valida passwords candidatas contra la política de
// complejidad de la organización, antes de viajar al IdP. El IdP revalida
// igual; acá solo evitamos un round-trip para rechazos obvios.
package password

import (
	"strings"
	"unicode"
)

type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// Validate chequea la password y retorna los motivos de rechazo.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	return len(reasons) == 0, reasons
}

// Describe arma un mensaje legible a partir de los motivos de rechazo.
func Describe(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	return "password does not meet complexity requirements: " + strings.Join(reasons, ", ")
}
