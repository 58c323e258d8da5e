package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"isuku-backend/pkg/utils"
)

// DiagnosticLog represents a diagnostic log from the collector app
type DiagnosticLog struct {
	Timestamp string                 `json:"timestamp"`
	Context   string                 `json:"context" validate:"max=100"`
	Level     string                 `json:"level" validate:"required,oneof=DEBUG INFO WARNING ERROR"`
	Message   string                 `json:"message" validate:"required,max=2000"`
	Data      map[string]interface{} `json:"data"`
	Platform  string                 `json:"platform" validate:"omitempty,oneof=ios android"`
}

// ReceiveDiagnosticLog writes a log line sent by the collector app to the
// server log.
// POST /api/collector/logs
func ReceiveDiagnosticLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entry DiagnosticLog
		if err := decodeRequest(r, &entry); err != nil {
			utils.RespondAppError(w, err)
			return
		}
		actor := actorFrom(r)

		prefix := "📱"
		switch entry.Level {
		case "ERROR":
			prefix = "🔴"
		case "WARNING":
			prefix = "🟡"
		case "INFO":
			prefix = "🔵"
		}

		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("%s MOBILE DIAGNOSTIC [%s] from %s", prefix, entry.Level, actor.Email)
		log.Printf("   Platform:  %s", entry.Platform)
		log.Printf("   Context:   %s", entry.Context)
		log.Printf("   Timestamp: %s", entry.Timestamp)
		log.Printf("   Message:   %s", entry.Message)
		if len(entry.Data) > 0 {
			if dataJSON, err := json.MarshalIndent(entry.Data, "      ", "  "); err == nil {
				log.Printf("   Data:\n      %s", string(dataJSON))
			}
		}
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		respondOK(w, map[string]string{"status": "received"})
	}
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health answers 200 when the database responds and 503 otherwise.
// GET /health
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Printf("❌ Health check failed: %v", err)
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondOK(w, map[string]string{"status": "ok"})
	}
}
