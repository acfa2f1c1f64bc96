package ipfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinAddsThroughHTTPAPI(t *testing.T) {
	var gotPath, gotPin string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPin = r.URL.Query().Get("pin")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Name":"","Hash":"QmTestHash","Size":"13"}`))
	}))
	defer srv.Close()

	pinner := NewShellPinner(srv.URL, "https://ipfs.io/ipfs")
	cid, err := pinner.Pin(context.Background(), "cover.png", strings.NewReader("image-content"))
	require.NoError(t, err)

	assert.Equal(t, "QmTestHash", cid)
	assert.Equal(t, "/api/v0/add", gotPath)
	assert.Equal(t, "true", gotPin)
	assert.Contains(t, gotBody, "image-content")
	assert.Equal(t, "https://ipfs.io/ipfs/QmTestHash", pinner.GatewayURL(cid))
}

func TestPinHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewShellPinner("localhost:5001", "https://ipfs.io/ipfs/").Pin(ctx, "x", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
