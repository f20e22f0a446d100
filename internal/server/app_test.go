package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/config"
	"github.com/dmitrijs2005/postboard/internal/server/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_WritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, slog.LevelInfo)

	b := events.NewBroker(4)
	ch, unsub := b.Subscribe()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.Publish(events.Event{Kind: events.PostCreated, PostID: "p-1", AccountID: "acc-1", At: at})
	b.Publish(events.Event{Kind: events.PostDeleted, PostID: "p-1", AccountID: "acc-1", At: at})
	unsub()

	auditLog(context.Background(), logger, ch)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "post event", rec["msg"])
	assert.Equal(t, "post.created", rec["kind"])
	assert.Equal(t, "p-1", rec["post_id"])
	assert.Equal(t, "acc-1", rec["account_id"])
}

func TestNewApp_WiresComponents(t *testing.T) {
	var c config.Config
	c.LoadDefaults()

	app, err := NewApp(context.Background(), &c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	assert.NotNil(t, app.server)
	assert.NotNil(t, app.store)
	assert.NotNil(t, app.broker)
	assert.Same(t, &c, app.config)
}
