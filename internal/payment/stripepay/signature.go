package stripepay

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
)

// SignatureHeader builds a Stripe-Signature header value for payload. It is
// used to replay captured events against a local server and in tests.
func SignatureHeader(payload []byte, secret string, ts time.Time) string {
	sig := webhook.ComputeSignature(ts, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}
