package obs

import (
	"context"
	"log"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Time starts a timer for op and returns a func that logs the duration and,
// if *errp is non-nil, the error. Use as: defer obs.Time(ctx, "op")(&err)
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	reqID := chimiddleware.GetReqID(ctx)
	if reqID == "" {
		reqID = "-"
	}

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("⏱️  req_id=%s op=%s dur=%dms err=%v", reqID, op, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("⏱️  req_id=%s op=%s dur=%dms", reqID, op, dur.Milliseconds())
	}
}
