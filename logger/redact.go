package logger

import "strings"

// DefaultMaskValue replaces sensitive data in log output.
const DefaultMaskValue = "***"

// defaultSensitiveKeys are field names whose values are always masked.
// An HTTP client handles bearer credentials on every request, so the
// defaults focus on token and authorization material.
var defaultSensitiveKeys = []string{
	"authorization",
	"token", "access_token", "refresh_token",
	"password", "secret", "api_key", "apikey",
	"credential", "credentials",
	"cookie", "set-cookie",
}

// Redactor masks values of credential-bearing fields before they reach a
// log sink.
type Redactor struct {
	keys      []string
	maskValue string
}

// NewRedactor creates a Redactor that masks the default sensitive keys plus
// any extra keys supplied by the caller.
func NewRedactor(extraKeys []string) *Redactor {
	keys := make([]string, 0, len(defaultSensitiveKeys)+len(extraKeys))
	keys = append(keys, defaultSensitiveKeys...)
	for _, k := range extraKeys {
		keys = append(keys, strings.ToLower(k))
	}
	return &Redactor{keys: keys, maskValue: DefaultMaskValue}
}

// RedactString masks value when key names a sensitive field.
func (r *Redactor) RedactString(key, value string) string {
	if r.isSensitive(key) {
		return r.maskValue
	}
	return value
}

// RedactValue masks simple values and map entries keyed by sensitive names.
// Header-style maps (string keys) are the common case in the HTTP pipeline.
func (r *Redactor) RedactValue(key string, value any) any {
	if r.isSensitive(key) {
		return r.maskValue
	}

	switch v := value.(type) {
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, val := range v {
			out[k] = r.RedactString(k, val)
		}
		return out
	case map[string][]string:
		out := make(map[string][]string, len(v))
		for k, vals := range v {
			if r.isSensitive(k) {
				out[k] = []string{r.maskValue}
				continue
			}
			out[k] = vals
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if r.isSensitive(k) {
				out[k] = r.maskValue
				continue
			}
			out[k] = val
		}
		return out
	default:
		return value
	}
}

// RedactFields masks sensitive entries in a field map.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = r.RedactValue(k, v)
	}
	return out
}

func (r *Redactor) isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range r.keys {
		if lower == s || strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
