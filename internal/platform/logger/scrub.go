package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/yungbote/foodgram-backend/internal/platform/envutil"
)

const redacted = "[REDACTED]"

// Keys whose values are never written. Matching is by substring on the
// lowercased key, so "current_password" and "auth_token" are covered.
var secretFragments = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"cookie",
	"email",
	"api_key",
	"apikey",
}

// Keys that identify a person. Their values are replaced by a salted hash
// so entries for the same user can still be correlated.
var identityKeys = map[string]bool{
	"user_id":       true,
	"author_id":     true,
	"subscriber_id": true,
	"viewer_id":     true,
	"owner_user_id": true,
}

// scrubber rewrites log key/value pairs. A nil or disabled scrubber passes
// pairs through untouched.
type scrubber struct {
	enabled bool
	salt    string
}

// scrubberFromEnv reads LOG_REDACTION_ENABLED (on unless set to a false
// value) and LOG_HASH_SALT.
func scrubberFromEnv() *scrubber {
	return &scrubber{
		enabled: envutil.Bool("LOG_REDACTION_ENABLED", true),
		salt:    envutil.String("LOG_HASH_SALT"),
	}
}

func (s *scrubber) kvs(kv []interface{}) []interface{} {
	if s == nil || !s.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = s.value(normKey(out[i]), out[i+1])
	}
	return out
}

func (s *scrubber) value(key string, val interface{}) interface{} {
	if key != "" {
		if isSecretKey(key) {
			return redacted
		}
		if identityKeys[key] {
			return s.hash(val)
		}
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = s.value(normKey(k), inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = s.value("", inner)
		}
		return out
	case string:
		if looksLikeCredential(v) {
			return redacted
		}
	}
	return val
}

func (s *scrubber) hash(val interface{}) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(s.salt))
	h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func isSecretKey(key string) bool {
	for _, f := range secretFragments {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

// looksLikeCredential catches access tokens logged under an innocent key:
// a raw JWT or an Authorization header value.
func looksLikeCredential(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if scheme, rest, ok := strings.Cut(s, " "); ok {
		if strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(rest) != ""
		}
	}
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func normKey(k interface{}) string {
	return strings.ToLower(strings.TrimSpace(stringify(k)))
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
