package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"

	dateLayout = "20060102150405"
)

// gatewayZone is the gateway's clock: every date it sends or expects is GMT+7.
var gatewayZone = time.FixedZone("GMT+7", 7*60*60)

func formatDate(t time.Time) string {
	return t.In(gatewayZone).Format(dateLayout)
}

// canonicalQuery joins the non-empty parameters as key=urlencode(value),
// keys sorted, separated by '&'. The secure hash fields are left out.
// The result is both the signed data and the redirect query string.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// sign returns hex(HMAC-SHA512(secret, data)).
func sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// verify recomputes the signature of params and compares it with the one
// they carry in constant time. Hex case is ignored.
func verify(secret string, params map[string]string) bool {
	got := strings.ToLower(params[paramSecureHash])
	if got == "" {
		return false
	}
	want := sign(secret, canonicalQuery(params))
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
