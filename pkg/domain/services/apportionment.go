package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Apportion splits total across claims proportionally to their size using the
// largest-remainder method. The returned shares always sum to total exactly.
// Ties on the fractional part go to the larger claim, then to the earlier claim.
func Apportion(claims []entities.Quantity, total entities.Quantity) ([]entities.Quantity, error) {
	shares := make([]entities.Quantity, len(claims))
	if total == 0 || len(claims) == 0 {
		if total != 0 {
			return nil, fmt.Errorf("cannot apportion %d units over no claims", total)
		}
		return shares, nil
	}
	if total < 0 {
		return nil, fmt.Errorf("cannot apportion negative total %d", total)
	}

	var sum int64
	for i, c := range claims {
		if c < 0 {
			return nil, fmt.Errorf("claim %d is negative: %d", i, c)
		}
		sum += int64(c)
	}
	if sum == 0 {
		return nil, fmt.Errorf("cannot apportion %d units over zero-sized claims", total)
	}

	// share_i = claim_i * total / sum, split into an exact integer quotient and remainder
	denominator := decimal.NewFromInt(sum)
	totalDec := decimal.NewFromInt(int64(total))
	remainders := make([]decimal.Decimal, len(claims))
	var assigned int64
	for i, c := range claims {
		q, r := decimal.NewFromInt(int64(c)).Mul(totalDec).QuoRem(denominator, 0)
		shares[i] = entities.Quantity(q.IntPart())
		remainders[i] = r
		assigned += q.IntPart()
	}

	order := make([]int, len(claims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if cmp := remainders[ia].Cmp(remainders[ib]); cmp != 0 {
			return cmp > 0
		}
		return claims[ia] > claims[ib]
	})

	left := int64(total) - assigned
	for k := 0; left > 0; k++ {
		shares[order[k%len(order)]]++
		left--
	}

	return shares, nil
}
