package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Memberstack-Signature"

// SignatureMiddleware rejects webhook deliveries whose body signature
// does not match the shared secret. It runs before any business logic
// so an unsigned request has no side effects.
func SignatureMiddleware(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret == "" {
			log.Println("MEMBERSTACK_WEBHOOK_SECRET is not set")
			http.Error(w, `{"success":false,"error":"Webhook secret is not configured"}`, http.StatusInternalServerError)
			return
		}

		signature := r.Header.Get(SignatureHeader)
		if signature == "" {
			http.Error(w, `{"success":false,"error":"Missing webhook signature"}`, http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"success":false,"error":"Failed to read request body"}`, http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if !ValidSignature(secret, body, signature) {
			log.Printf("Invalid webhook signature from %s", r.RemoteAddr)
			http.Error(w, `{"success":false,"error":"Invalid webhook signature"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ValidSignature compares the hex HMAC-SHA256 of body under secret
// against the presented signature in constant time.
func ValidSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the hex signature for a body; used by tests and by
// manual delivery tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
