package api

import (
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

type auditEvent struct {
	Time      string `json:"time"`
	Decision  string `json:"decision"`
	Mechanism string `json:"mechanism"`
	Actor     string `json:"actor,omitempty"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	RemoteIP  string `json:"remote_ip,omitempty"`
	Delivery  string `json:"delivery,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Server) auditAuth(r *http.Request, decision, mechanism, actor, reason string) {
	ev := auditEvent{
		Time:      time.Now().UTC().Format(time.RFC3339),
		Decision:  strings.TrimSpace(decision),
		Mechanism: strings.TrimSpace(mechanism),
		Actor:     strings.TrimSpace(actor),
		Method:    r.Method,
		Path:      r.URL.Path,
		RemoteIP:  requestRemoteIP(r),
		Delivery:  strings.TrimSpace(r.Header.Get("X-GitHub-Delivery")),
		Reason:    strings.TrimSpace(reason),
	}
	s.logger.WithName("audit").Info("auth decision",
		"decision", ev.Decision,
		"mechanism", ev.Mechanism,
		"actor", ev.Actor,
		"path", ev.Path,
		"remote_ip", ev.RemoteIP,
		"reason", ev.Reason,
	)
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.writeAuditLine(string(b))
}

func requestRemoteIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func (s *Server) writeAuditLine(line string) {
	path := strings.TrimSpace(s.auth.Audit.LogFile)
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		s.logger.Error(err, "audit log file unavailable", "path", path)
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}
