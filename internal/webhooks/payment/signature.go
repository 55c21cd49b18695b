package paymentwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Notification is the provider-defined webhook body. Depending on the
// notification channel the data id arrives either in data.id or as the last
// path segment of a resource URL.
type Notification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Resource string `json:"resource"`
}

// DataID resolves the notification's payment id, lowercased. Empty when the
// body carries neither form.
func (n *Notification) DataID() string {
	if n == nil {
		return ""
	}
	if id := strings.TrimSpace(n.Data.ID); id != "" {
		return strings.ToLower(id)
	}
	resource := strings.TrimSpace(n.Resource)
	if resource == "" {
		return ""
	}
	segments := strings.Split(strings.TrimRight(resource, "/"), "/")
	last := segments[len(segments)-1]
	return strings.ToLower(strings.TrimSpace(last))
}

// ParseNotification decodes the webhook body.
func ParseNotification(payload []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &n, nil
}

// VerifySignature checks the provider's HMAC scheme: x-signature carries
// comma-separated key=value pairs with ts and v1, and v1 must equal the
// hex HMAC-SHA256 of `id:<dataId>;request-id:<xRequestId>;ts:<ts>;`.
func VerifySignature(secret, xSignature, xRequestID, dataID string) bool {
	if secret == "" || xSignature == "" || xRequestID == "" || dataID == "" {
		return false
	}

	ts, v1 := parseSignatureHeader(xSignature)
	if ts == "" || v1 == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, xRequestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(v1)))
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}
