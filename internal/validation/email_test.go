package validation

import "testing"

func TestNewEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Email
		wantErr bool
	}{
		{"正しい形式", "alice@example.com", "alice@example.com", false},
		{"小文字に正規化", "Alice@Example.COM", "alice@example.com", false},
		{"前後の空白を除去", "  bob@example.org ", "bob@example.org", false},
		{"サブドメイン", "carol@mail.example.co.jp", "carol@mail.example.co.jp", false},
		{"空文字列", "", "", true},
		{"@なし", "alice.example.com", "", true},
		{"ドメインなし", "alice@", "", true},
		{"ローカル部なし", "@example.com", "", true},
		{"ドットなしドメイン", "alice@localhost", "", true},
		{"表示名付き", "Alice <alice@example.com>", "", true},
		{"空白を含む", "ali ce@example.com", "", true},
		{"末尾ドット", "alice@example.com.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEmail(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NewEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
