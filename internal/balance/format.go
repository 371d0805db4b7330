package balance

import (
	"fmt"
	"math/big"
	"strings"
)

// DefaultDecimals is the display precision used when none is configured.
const DefaultDecimals = 6

// Format renders a smallest-unit integer string as a fixed-point string with
// exactly decimals fractional digits. All arithmetic is integral, so the
// conversion is exact for any magnitude.
func Format(amount string, decimals int) (string, error) {
	v, ok := new(big.Int).SetString(amount, 10)
	if ok && v.Sign() < 0 {
		ok = false
	}
	if !ok {
		return "", fmt.Errorf("bad amount %q", amount)
	}
	if decimals < 0 {
		return "", fmt.Errorf("bad decimals %d", decimals)
	}
	digits := v.String()
	if decimals == 0 {
		return digits, nil
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	cut := len(digits) - decimals
	return digits[:cut] + "." + digits[cut:], nil
}

// Parse is the inverse of Format: a fixed-point string at the given
// precision back to a smallest-unit integer string. Fractional parts shorter
// than decimals are right-padded; longer ones are rejected rather than
// silently rounded.
func Parse(display string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("bad decimals %d", decimals)
	}
	whole, frac := display, ""
	if i := strings.IndexByte(display, '.'); i >= 0 {
		whole, frac = display[:i], display[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return "", fmt.Errorf("%q exceeds %d decimal places", display, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || v.Sign() < 0 {
		return "", fmt.Errorf("bad display amount %q", display)
	}
	return v.String(), nil
}
