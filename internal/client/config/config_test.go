package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_endpoint_addr":"10.0.0.1:50051","request_timeout":"3s"}`), 0o600))

	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{name: "defaults", args: nil,
			want: &Config{ServerEndpointAddr: "127.0.0.1:50051", RequestTimeout: 10 * time.Second}},
		{name: "json", args: []string{"-c", path},
			want: &Config{ServerEndpointAddr: "10.0.0.1:50051", RequestTimeout: 3 * time.Second}},
		{name: "env over json", args: []string{"-c", path}, env: map[string]string{"ROMCOM_CLIENT_ADDR": "env:1"},
			want: &Config{ServerEndpointAddr: "env:1", RequestTimeout: 3 * time.Second}},
		{name: "flags win", args: []string{"-c", path, "-a", "127.0.0.1:9090", "-t", "20"}, env: map[string]string{"ROMCOM_CLIENT_ADDR": "env:1"},
			want: &Config{ServerEndpointAddr: "127.0.0.1:9090", RequestTimeout: 20 * time.Second}},
		{name: "bad timeout", args: []string{"-t", "abc"}, wantErr: true},
		{name: "missing file", args: []string{"-c", filepath.Join(dir, "nope.json")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
