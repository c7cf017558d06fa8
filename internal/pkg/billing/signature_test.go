package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func signPayload(t *testing.T, payload []byte, msgID string, ts time.Time, secret string) SignatureHeaders {
	t.Helper()

	key, err := decodeSecret(secret)
	if err != nil {
		t.Fatalf("failed to decode test secret: %v", err)
	}
	tsStr := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + tsStr + "." + string(payload)))

	return SignatureHeaders{
		MessageID: msgID,
		Signature: "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		Timestamp: tsStr,
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment.succeeded","data":{"object":{}}}`)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("top-secret-key"))
	now := time.Now()

	headers := signPayload(t, payload, "evt_1", now, secret)
	if err := verifySignatureAt(payload, headers, secret, now); err != nil {
		t.Fatalf("expected valid signature to verify, got %v", err)
	}
}

func TestVerifySignature_AlteredPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","amount":100}`)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("top-secret-key"))
	now := time.Now()

	headers := signPayload(t, payload, "evt_1", now, secret)
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = '9'

	err := verifySignatureAt(tampered, headers, secret, now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for altered payload, got %v", err)
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	headers := signPayload(t, payload, "evt_1", now, "whsec_"+base64.StdEncoding.EncodeToString([]byte("key-a")))
	err := verifySignatureAt(payload, headers, "whsec_"+base64.StdEncoding.EncodeToString([]byte("key-b")), now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for wrong secret, got %v", err)
	}
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("top-secret-key"))
	now := time.Now()

	tests := []struct {
		name string
		ts   time.Time
	}{
		{"too old", now.Add(-SignatureTolerance - time.Minute)},
		{"too far in the future", now.Add(SignatureTolerance + time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := signPayload(t, payload, "evt_1", tt.ts, secret)
			err := verifySignatureAt(payload, headers, secret, now)
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature for %s timestamp, got %v", tt.name, err)
			}
		})
	}
}

func TestVerifySignature_MissingHeaders(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("top-secret-key"))

	headers := signPayload(t, payload, "evt_1", time.Now(), secret)
	for _, tt := range []struct {
		name string
		h    SignatureHeaders
	}{
		{"no id", SignatureHeaders{Signature: headers.Signature, Timestamp: headers.Timestamp}},
		{"no signature", SignatureHeaders{MessageID: headers.MessageID, Timestamp: headers.Timestamp}},
		{"no timestamp", SignatureHeaders{MessageID: headers.MessageID, Signature: headers.Signature}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifySignature(payload, tt.h, secret); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestVerifySignature_MultipleVersionedSignatures(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("top-secret-key"))
	now := time.Now()

	headers := signPayload(t, payload, "evt_1", now, secret)
	// Unknown versions and garbage entries before the valid v1 signature
	// must be skipped, not rejected.
	headers.Signature = fmt.Sprintf("v2,%s garbage %s",
		base64.StdEncoding.EncodeToString([]byte("other")), headers.Signature)

	if err := verifySignatureAt(payload, headers, secret, now); err != nil {
		t.Fatalf("expected one of several signatures to verify, got %v", err)
	}
}
