package coupang

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// The gateway expects a two-digit year: YYMMDDTHHMMSSZ in UTC.
const signedDateLayout = "060102T150405Z"

// authorization builds the CEA header for one request. The signed message
// is signed-date + method + path + query, with the "?" separator dropped.
func authorization(method, requestURI, accessKey, secretKey string, now time.Time) string {
	signedDate := now.UTC().Format(signedDateLayout)
	path, query, _ := strings.Cut(requestURI, "?")

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(signedDate + method + path + query))
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("CEA algorithm=HmacSHA256, access-key=%s, signed-date=%s, signature=%s",
		accessKey, signedDate, signature)
}
