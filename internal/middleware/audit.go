package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/services"
)

const auditBodyLimit = 2000

// AuditLog records write requests to system_logs after they complete.
func AuditLog(audit *services.SystemLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			body = maskSensitiveFields(clip(string(raw), auditBodyLimit))
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)
		level := "info"
		if status >= http.StatusBadRequest {
			level = "warning"
		}

		var who string
		if p, ok := GetPrincipal(c); ok {
			who = p.Email
		}

		audit.Record(c.Request.Context(), services.AuditEvent{
			Level:     level,
			Module:    module,
			Action:    action,
			Message:   formatAuditMessage(who, method, c.Request.URL.Path, status),
			UserID:    GetUserID(c),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra: map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   body,
				"audit":  true,
			},
		})
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...[truncated]"
}

// parseRouteInfo maps "/api/proposals/:id/status" + PUT to ("Proposals", "Update").
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	module = strings.SplitN(path, "/", 2)[0]
	if module == "" {
		module = "unknown"
	}
	words := strings.Fields(strings.ReplaceAll(module, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	module = strings.Join(words, "-")

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut, http.MethodPatch:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

func formatAuditMessage(who, method, path string, status int) string {
	if who == "" {
		who = "anonymous"
	}
	var b strings.Builder
	b.WriteString("[Audit] ")
	b.WriteString(who)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" -> ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

var sensitiveKeys = []string{"password", "currentPassword", "newPassword", "refreshToken", "token", "secret", "apiKey"}

// maskSensitiveFields replaces the string values of sensitive JSON keys.
func maskSensitiveFields(body string) string {
	for _, key := range sensitiveKeys {
		body = maskJSONValue(body, key)
	}
	return body
}

// maskJSONValue masks every "key": "value" occurrence for key.
func maskJSONValue(body, key string) string {
	needle := "\"" + key + "\""
	from := 0
	for {
		idx := strings.Index(body[from:], needle)
		if idx == -1 {
			return body
		}
		pos := from + idx + len(needle)
		for pos < len(body) && (body[pos] == ' ' || body[pos] == '\t') {
			pos++
		}
		if pos >= len(body) || body[pos] != ':' {
			from = pos
			continue
		}
		pos++
		for pos < len(body) && (body[pos] == ' ' || body[pos] == '\t') {
			pos++
		}
		if pos >= len(body) || body[pos] != '"' {
			from = pos
			continue
		}
		end := strings.Index(body[pos+1:], "\"")
		if end == -1 {
			return body
		}
		body = body[:pos+1] + "***" + body[pos+1+end:]
		from = pos + 5
	}
}
