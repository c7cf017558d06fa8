package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance is the accepted clock skew between the webhook-timestamp
// header and local time.
const SignatureTolerance = 5 * time.Minute

// SignatureHeaders carries the transport headers of the Standard Webhooks
// signature scheme used by the payment provider.
type SignatureHeaders struct {
	MessageID string // webhook-id
	Signature string // webhook-signature, space separated "v1,<base64>" entries
	Timestamp string // webhook-timestamp, unix seconds
}

// VerifySignature authenticates a raw webhook body against the shared secret.
// The signed content is "<id>.<timestamp>.<body>" and the expected signature
// is base64(HMAC-SHA256(secret, signedContent)). Timestamps outside the
// tolerance window are rejected so captured payloads cannot be replayed.
func VerifySignature(payload []byte, headers SignatureHeaders, secret string) error {
	return verifySignatureAt(payload, headers, secret, time.Now())
}

func verifySignatureAt(payload []byte, headers SignatureHeaders, secret string, now time.Time) error {
	msgID := strings.TrimSpace(headers.MessageID)
	sigHeader := strings.TrimSpace(headers.Signature)
	tsHeader := strings.TrimSpace(headers.Timestamp)
	if msgID == "" || sigHeader == "" || tsHeader == "" {
		return fmt.Errorf("%w: missing signature headers", ErrInvalidSignature)
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return err
	}

	ts, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew > SignatureTolerance || skew < -SignatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	signedContent := msgID + "." + tsHeader + "." + string(payload)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(signedContent))
	expected := mac.Sum(nil)

	// The header may list several versioned signatures; any matching v1
	// entry authenticates the payload.
	for _, entry := range strings.Fields(sigHeader) {
		version, sig, found := strings.Cut(entry, ",")
		if !found || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrInvalidSignature)
	}
	trimmed := strings.TrimPrefix(s, "whsec_")
	if key, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		return key, nil
	}
	// Secrets configured without base64 encoding are used as-is.
	return []byte(trimmed), nil
}
