package chatbridge_test

import (
	"os"
	"strings"
	"testing"
)

func readFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestDockerfileMultiStageBuild(t *testing.T) {
	content := readFile(t, "Dockerfile")

	// マルチステージビルドの確認: ビルドステージと実行ステージが存在すること
	if !strings.Contains(content, "FROM golang:") {
		t.Error("Dockerfile should contain a Go builder stage (FROM golang:)")
	}

	// 最終ステージは軽量イメージであること
	var lastFrom string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "FROM ") {
			lastFrom = trimmed
		}
	}
	if !strings.Contains(lastFrom, "gcr.io/distroless") {
		t.Errorf("final stage should use distroless, got: %s", lastFrom)
	}
}

func TestDockerfileEntrypoint(t *testing.T) {
	content := readFile(t, "Dockerfile")

	tests := []struct {
		name string
		want string
	}{
		{name: "cmd/chatbridgeをビルドする", want: "./cmd/chatbridge"},
		{name: "ENTRYPOINTでバイナリを起動する", want: `ENTRYPOINT ["/usr/local/bin/chatbridge"]`},
		// distrolessにはcurlがないため、healthcheckサブコマンドを使う
		{name: "HEALTHCHECKはサブコマンドを使う", want: `"healthcheck"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(content, tt.want) {
				t.Errorf("Dockerfile should contain %q", tt.want)
			}
		})
	}
}

func TestDockerCompose(t *testing.T) {
	content := readFile(t, "docker-compose.yml")

	tests := []struct {
		name string
		want string
	}{
		{name: "apiサービス", want: "api:"},
		{name: "dbサービス", want: "db:"},
		{name: "migrateサービス", want: "migrate:"},
		{name: "PostgreSQLイメージ", want: "image: postgres:"},
		{name: "内部ネットワーク", want: "internal: true"},
		{name: "マイグレーション完了後にapiを起動", want: "service_completed_successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(content, tt.want) {
				t.Errorf("docker-compose.yml should contain %q", tt.want)
			}
		})
	}
}
