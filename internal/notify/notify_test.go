package notify

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/models"
)

func TestLogNotifier_WritesNotice(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	err := n.NotifyInvitation(context.Background(), "guest@example.com", "Acme", "Alice", models.RoleManager)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "guest@example.com")
	require.Contains(t, buf.String(), `"Acme"`)
	require.Contains(t, buf.String(), "Alice invited you")
	require.Contains(t, buf.String(), "manager")
}

func TestLogNotifier_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.NotifyInvitation(ctx, "guest@example.com", "Acme", "Alice", models.RoleMember)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, buf.String())
}
