package authors

import "testing"

func TestIsEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"alice@example.org", true},
		{"Alice.Smith@Example.ORG", true},
		{"a+tag@sub.example.co", true},
		{"o'brien@example.museum", true},
		{"bob@10.0.0.1", true},
		{"bob@example.org:8080", true},
		{"x@a-b.example.info", true},

		{"Alice Smith", false},
		{"", false},
		{"@example.org", false},
		{"alice@", false},
		{"alice@localhost", false},
		{"alice@example.toolongtld", false},
		{"alice@-example.org", false},
		{"alice@example-.org", false},
		{"alice@.example.org", false},
		{"alice..smith@example.org", false},
		{"alice@example.org extra", false},
	}

	for _, tt := range tests {
		if got := IsEmail(tt.input); got != tt.want {
			t.Errorf("IsEmail(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		realName, login, want string
	}{
		{"Alice Smith", "Asmith", "Alice Smith"},
		{"alice@example.org", "Asmith", "Asmith"},
		{"", "Asmith", "Asmith"},
		{"   ", "Asmith", "Asmith"},
		{"0", "Asmith", "0"},
		{"Dr. Bob", "Bob", "Dr. Bob"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.realName, tt.login); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.realName, tt.login, got, tt.want)
		}
	}
}
