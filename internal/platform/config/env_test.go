package config

import (
	"strings"
	"testing"
	"time"
)

type ledgerEnv struct {
	Path string `env:"FORUM_TEST_LEDGER_PATH" envDefault:"data/forum.db"`
}

type daemonEnv struct {
	Addr      string        `env:"FORUM_TEST_ADDR" envDefault:":8090"`
	BlockTime time.Duration `env:"FORUM_TEST_BLOCK_TIME" envDefault:"6s"`
	Ledger    ledgerEnv
}

func TestParseEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    daemonEnv
		wantErr string
	}{
		{
			name: "defaults",
			want: daemonEnv{Addr: ":8090", BlockTime: 6 * time.Second, Ledger: ledgerEnv{Path: "data/forum.db"}},
		},
		{
			name: "nested override",
			env:  map[string]string{"FORUM_TEST_LEDGER_PATH": "/var/lib/forum.db", "FORUM_TEST_BLOCK_TIME": "2s"},
			want: daemonEnv{Addr: ":8090", BlockTime: 2 * time.Second, Ledger: ledgerEnv{Path: "/var/lib/forum.db"}},
		},
		{
			name:    "bad duration",
			env:     map[string]string{"FORUM_TEST_BLOCK_TIME": "soon"},
			wantErr: "parse env:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var got daemonEnv
			err := ParseEnv(&got)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse env: %v", err)
			}
			if got != tt.want {
				t.Fatalf("config = %+v, want %+v", got, tt.want)
			}
		})
	}
}
