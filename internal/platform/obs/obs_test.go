package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestTimeLogsRequestIDAndOp(t *testing.T) {
	buf := captureLog(t)
	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "abc-1")

	var err error
	Time(ctx, "routes.generate")(&err)

	assert.Contains(t, buf.String(), "req_id=abc-1")
	assert.Contains(t, buf.String(), "op=routes.generate")
	assert.NotContains(t, buf.String(), "err=")
}

func TestTimeLogsError(t *testing.T) {
	buf := captureLog(t)

	err := errors.New("boom")
	Time(context.Background(), "x")(&err)

	assert.Contains(t, buf.String(), "req_id=-")
	assert.Contains(t, buf.String(), "err=boom")
}
