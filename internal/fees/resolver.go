package fees

import (
	"math"
	"strconv"
	"strings"

	"github.com/lettora/rentals-service/internal/models"
)

// applicationFeeFlagYes is the literal flag value the listing config stores.
const applicationFeeFlagYes = "YES"

// Resolution is the outcome of resolving a listing's application fee.
// AmountMinorUnits is nil when no fee is configured; a nil amount is
// never replaced with a fabricated default.
type Resolution struct {
	FeeRequired      bool
	AmountMinorUnits *int64
	Currency         string
}

// Resolve determines the application fee for a listing. Priority order,
// first positive match wins:
//
//  1. the listing entity's applicationFeeAmount
//  2. the invite config's feeAmount
//  3. the property's root-level applicationFeeAmount
//
// Matched values are major currency units stored as strings; they are
// converted to minor units by multiplying by 100 and rounding to the
// nearest integer. FeeRequired is the invite config's "YES" flag ANDed
// with a positive resolved amount: a flag with no resolvable amount
// means the application completes without payment.
func Resolve(listing *models.Listing) Resolution {
	res := Resolution{Currency: listing.ListingCurrency()}

	var candidates []*string
	if listing.Shape == models.ListingShapeNormalized && listing.Entity != nil {
		candidates = append(candidates, listing.Entity.ApplicationFeeAmount)
	}
	if listing.InviteConfig != nil {
		candidates = append(candidates, listing.InviteConfig.FeeAmount)
	}
	if listing.Property != nil {
		candidates = append(candidates, listing.Property.ApplicationFeeAmount)
	}

	for _, c := range candidates {
		if v, ok := parsePositiveAmount(c); ok {
			minor := int64(math.Round(v * 100))
			res.AmountMinorUnits = &minor
			break
		}
	}

	flagged := listing.InviteConfig != nil &&
		strings.EqualFold(listing.InviteConfig.ApplicationFee, applicationFeeFlagYes)
	res.FeeRequired = flagged && res.AmountMinorUnits != nil && *res.AmountMinorUnits > 0

	return res
}

func parsePositiveAmount(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
