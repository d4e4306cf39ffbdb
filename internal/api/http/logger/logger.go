package logger

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	ctxEventKey ctxKey = iota
)

func LoggerMiddleware(l Logger, component string, node string) func(http.Handler) http.Handler {
	if component == "" {
		component = "aptbot"
	}
	index := make(map[string]Rule, len(rules))
	for _, ru := range rules {
		key := ru.Method + " " + ru.Pattern
		index[key] = ru
	}
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ev := Event{
				TS:            time.Now().Format(time.RFC3339Nano),
				EventId:       uuid.NewString(),
				CorrelationId: middleware.GetReqID(r.Context()),

				Severity: Severity[SEV_INFO],

				Actor: Actor{
					PeerIp: peerIp(r),
				},

				Request: Request{
					Method:    r.Method,
					Path:      r.URL.Path,
					Host:      r.Host,
					UserAgent: r.UserAgent(),
				},

				Result: Result{},

				Runtime: Runtime{
					Component: component,
					Node:      node,
				},

				Extra: map[string]any{},
			}

			ctx := context.WithValue(r.Context(), ctxEventKey, &ev)
			r = r.WithContext(ctx)

			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			key := r.Method + " " + pattern
			if ev.Action == "" {
				if ru, ok := index[key]; ok {
					ev.Action = ru.Action
					ev.Severity = Severity[ru.Severity]
				} else {
					ev.Action = "unknown"
					ev.Severity = Severity[SEV_LOW]
				}
			} else {
				ev.Severity = Severity[severityForAction(ev.Action)]
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			ev.Result.Code = status
			ev.Result.Bytes = ww.BytesWritten()
			ev.Result.LatencyMs = time.Since(start).Milliseconds()

			switch {
			case status >= 200 && status < 400:
				ev.Result.Status = "allow"
			case status == http.StatusUnauthorized || status == http.StatusForbidden:
				ev.Result.Status = "deny"
				ev.Severity = bump(ev.Severity)
			default:
				ev.Result.Status = "error"
				ev.Severity = bump(ev.Severity)
			}

			l.Write(ev)
		}
		return http.HandlerFunc(fn)
	}
}

func FromContext(ctx context.Context) *Event {
	ev, _ := ctx.Value(ctxEventKey).(*Event)
	return ev
}

func SetAction(ctx context.Context, action string) {
	if ev := FromContext(ctx); ev != nil {
		ev.Action = action
	}
}

func SetTarget(ctx context.Context, target Target) {
	if ev := FromContext(ctx); ev != nil {
		if target.SessionId != "" {
			ev.Target.SessionId = target.SessionId
		}
		if target.TurnId != "" {
			ev.Target.TurnId = target.TurnId
		}
		if len(target.Tools) != 0 {
			ev.Target.Tools = target.Tools
		}
	}
}

// SetActor records who the auth middleware resolved the caller to.
func SetActor(ctx context.Context, buildingId string, subject string, authenticated bool) {
	if ev := FromContext(ctx); ev != nil {
		ev.Actor.BuildingId = buildingId
		ev.Actor.Subject = subject
		ev.Actor.Authenticated = authenticated
	}
}

func SetReason(ctx context.Context, reason string) {
	if ev := FromContext(ctx); ev != nil {
		ev.Result.Reason = reason
	}
}

func PutExtra(ctx context.Context, k string, v any) {
	if ev := FromContext(ctx); ev != nil {
		if ev.Extra == nil {
			ev.Extra = map[string]any{}
		}
		ev.Extra[k] = v
	}
}

// JsonLineLogger writes one JSON document per line. Writes are serialized
// so concurrent requests never interleave.
type JsonLineLogger struct {
	mu  sync.Mutex
	Out io.Writer
}

func NewJsonLineLogger(out io.Writer) *JsonLineLogger {
	return &JsonLineLogger{Out: out}
}

func (l *JsonLineLogger) Write(event Event) {
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.Out.Write(append(b, '\n'))
}

func peerIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func severityForAction(action string) int {
	if s, ok := actionSeverity[action]; ok {
		return s
	}
	return SEV_LOW
}

func bump(s string) string {
	switch s {
	case "information":
		return "low"
	case "low":
		return "medium"
	case "medium":
		return "high"
	case "high":
		return "critical"
	default:
		return s
	}
}
