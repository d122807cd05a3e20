package sessions

import (
	"strings"

	"github.com/pkg/errors"
)

// ObfuscatePhoneNumber applies the upstream's digit rotation, (d+3) mod 10,
// to every digit of number. The upstream expects this form on sms_login and
// servers_list.
func ObfuscatePhoneNumber(number string) (string, error) {
	if number == "" {
		return "", errors.New("[ObfuscatePhoneNumber] phone number is empty")
	}
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		if r < '0' || r > '9' {
			return "", errors.Errorf("[ObfuscatePhoneNumber] invalid digit %q", r)
		}
		b.WriteRune('0' + (r-'0'+3)%10)
	}
	// The upstream renders the result as an integer, dropping leading zeros.
	out := strings.TrimLeft(b.String(), "0")
	if out == "" {
		out = "0"
	}
	return out, nil
}
