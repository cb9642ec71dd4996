package validators

import (
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
)

// PromoCodeMaxLen matches the promo_codes.code column.
const PromoCodeMaxLen = 64

// NormalizePromoCode trims a client-supplied promo code. An empty result means
// no promo. Codes are stored free-form, so existence is left to the catalog
// lookup and only a code longer than the column is rejected here.
func NormalizePromoCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", nil
	}
	if utf8.RuneCountInString(code) > PromoCodeMaxLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Code promo invalide.").
			WithDetails(map[string]any{"field": "code_promo", "max": PromoCodeMaxLen})
	}
	return code, nil
}
