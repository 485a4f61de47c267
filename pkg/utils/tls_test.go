// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientTLSConfigEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := LoadClientTLSConfig("", "", "")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadClientTLSConfigErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))

	tests := []struct {
		name                     string
		certFile, keyFile, caCrt string
	}{
		{name: "cert without key", certFile: garbage},
		{name: "missing ca", caCrt: filepath.Join(dir, "missing.pem")},
		{name: "bad ca", caCrt: garbage},
		{name: "bad key pair", certFile: garbage, keyFile: garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadClientTLSConfig(tt.certFile, tt.keyFile, tt.caCrt)
			assert.Error(t, err)
		})
	}
}

func TestLoadClientTLSConfigTrustsCA(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, pemBytes, 0o600))

	cfg, err := LoadClientTLSConfig("", "", caFile)
	require.NoError(t, err)

	transport := &http.Transport{TLSClientConfig: cfg}
	t.Cleanup(transport.CloseIdleConnections)
	resp, err := (&http.Client{Transport: transport}).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
