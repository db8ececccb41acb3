package cntool

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const LovelacePerAda = 1_000_000

// SendAll is the operator-facing sentinel requesting the entire balance.
const SendAll = "all"

// ParseLovelace converts an operator-supplied ADA amount into lovelace.
// Fractional amounts are allowed down to a single lovelace; anything finer
// is truncated. Grouping commas and surrounding whitespace are tolerated.
// The SendAll sentinel is reported via the second return rather than a value.
func ParseLovelace(amount string) (lovelace uint64, sendAll bool, err error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(amount), ",", "")

	if strings.EqualFold(cleaned, SendAll) {
		sendAll = true
		return
	}

	if cleaned == "" || strings.HasPrefix(cleaned, "-") || strings.HasPrefix(cleaned, "+") {
		err = errors.Wrapf(ErrInvalidAmount, "'%s'", amount)
		return
	}

	whole := cleaned
	frac := ""
	if dot := strings.IndexByte(cleaned, '.'); dot >= 0 {
		whole, frac = cleaned[:dot], cleaned[dot+1:]
		if whole == "" && frac == "" {
			err = errors.Wrapf(ErrInvalidAmount, "'%s'", amount)
			return
		}
	}
	if whole == "" {
		whole = "0"
	}

	ada, err2 := strconv.ParseUint(whole, 10, 64)
	if err2 != nil {
		err = errors.Wrapf(ErrInvalidAmount, "'%s'", amount)
		return
	}

	// Truncate below one lovelace rather than round.
	if len(frac) > 6 {
		frac = frac[:6]
	}
	var sub uint64
	if frac != "" {
		padded := frac + strings.Repeat("0", 6-len(frac))
		sub, err2 = strconv.ParseUint(padded, 10, 64)
		if err2 != nil {
			err = errors.Wrapf(ErrInvalidAmount, "'%s'", amount)
			return
		}
	}

	lovelace = ada*LovelacePerAda + sub
	return
}

// FormatAda renders lovelace as a decimal ADA string for operator output.
func FormatAda(lovelace uint64) string {
	whole := lovelace / LovelacePerAda
	frac := lovelace % LovelacePerAda
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	s := strconv.FormatUint(whole, 10) + "." + leftPad(strconv.FormatUint(frac, 10), 6)
	return strings.TrimRight(s, "0")
}

func leftPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
