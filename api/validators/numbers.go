package validators

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
)

var maxCount = decimal.NewFromInt(math.MaxInt32)

// ParsePositiveCount reads a JSON number or numeric string that must hold a
// positive whole number. "50", 50 and 5e1 are all accepted. A missing or null
// value is VALIDATION_ERROR; anything else that is not a positive integer is
// INVALID_FORMAT.
func ParsePositiveCount(field string, raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "missing or invalid fields").WithDetails(map[string]string{field: "is required"})
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, invalidCount(field, err)
		}
		text = strings.TrimSpace(s)
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return 0, invalidCount(field, err)
	}
	if !value.IsInteger() || !value.IsPositive() || value.GreaterThan(maxCount) {
		return 0, invalidCount(field, nil)
	}
	return int(value.IntPart()), nil
}

func invalidCount(field string, cause error) error {
	msg := field + " must be a positive integer"
	details := map[string]any{"field": field}
	if cause != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidFormat, cause, msg).WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeInvalidFormat, msg).WithDetails(details)
}
