package pep508

import "testing"

func TestSpecifier_String(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{">=1.0", ">=1.0"},
		{" < 2 , >= 1.0 ", "<2,>=1.0"},
		{"==2.8.*, >=2.8.1", "==2.8.*,>=2.8.1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseSpecifier(tt.in)
			if err != nil {
				t.Fatalf("ParseSpecifier(%q) failed: %v", tt.in, err)
			}
			if got := s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpecifier_Contains(t *testing.T) {
	tests := []struct {
		spec      string
		candidate string
		want      bool
	}{
		{"", "1.0", true},
		{">=1.0,<2", "1.5", true},
		{">=1.0,<2", "2.0", false},
		{"~=1.4.2", "1.4.5", true},
		{"~=1.4.2", "1.5.0", false},
		{"~=2.2", "2.9", true},
		{"~=2.2", "3.0", false},
		{"==2.8.*", "2.8.3", true},
		{"==2.8.*", "2.9", false},
		{"!=1.0", "1.0.0", false},
		{"!=1.*", "2.0", true},
		{"===1.0", "1.0", true},
		{">1.0", "not-a-version", false},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.candidate, func(t *testing.T) {
			s, err := ParseSpecifier(tt.spec)
			if err != nil {
				t.Fatalf("ParseSpecifier(%q) failed: %v", tt.spec, err)
			}
			if got := s.Contains(tt.candidate); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestParseSpecifier_Invalid(t *testing.T) {
	for _, in := range []string{"1.0", ">=", "~=1", ">=1.*", "==1.0+local.*", ">= 1 0", "=>1.0"} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseSpecifier(in); err == nil {
				t.Errorf("ParseSpecifier(%q) succeeded, want error", in)
			}
		})
	}
}
