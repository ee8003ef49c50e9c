package pricing

import (
	"math"

	"github.com/Simplici0/movequote/internal/apperr"
)

// maxAmount bounds every currency value. It leaves room for the tax
// multiplication without leaving int64.
const maxAmount = math.MaxInt64 / 4

func mul(qty, rate int64) (int64, error) {
	if qty == 0 || rate == 0 {
		return 0, nil
	}
	if qty < 0 || rate < 0 || qty > maxAmount/rate {
		return 0, apperr.Validation("amount", "is out of range")
	}
	return qty * rate, nil
}

func sum(values ...int64) (int64, error) {
	var total int64
	for _, v := range values {
		if v < 0 || v > maxAmount-total {
			return 0, apperr.Validation("amount", "is out of range")
		}
		total += v
	}
	return total, nil
}

func nonNegative(field string, v int64) error {
	if v < 0 {
		return apperr.Validation(field, "must be greater than or equal to 0")
	}
	return nil
}
