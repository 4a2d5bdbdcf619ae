package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func fetchVersion(addr string) (string, error) {
	resp, err := http.Get("http://" + addr + "/api/version")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var v struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

func TestServeReloadsOnChange(t *testing.T) {
	root := writeSite(t, cleanSite())
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan result, 1)
	go func() {
		done <- executeContext(ctx, t, "serve", "--root", root, "--addr", addr, "--debounce", "50ms")
	}()

	var first string
	require.Eventually(t, func() bool {
		v, err := fetchVersion(addr)
		first = v
		return err == nil && v != ""
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "content/pages/accueil.md"),
		[]byte("---\ntitre: Nouveau titre\n---\n"), 0644))

	assert.Eventually(t, func() bool {
		v, err := fetchVersion(addr)
		return err == nil && v != first
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case res := <-done:
		assert.Equal(t, -1, res.exitCode, res.stderr)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeAddressInUse(t *testing.T) {
	root := writeSite(t, cleanSite())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	res := execute(t, "serve", "--root", root, "--addr", ln.Addr().String(), "--watch=false")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "listen")
}
