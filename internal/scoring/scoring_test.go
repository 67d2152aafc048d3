package scoring

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello world", "hello world"},
		{"hello, world!", "hello world"},
		{"  Hello\t\n  World  ", "hello world"},
		{`"Don't," she said.`, "dont she said"},
		{"What?! Really;: yes", "what really yes"},
		{"", ""},
		{"...", ""},
		{"안녕하세요, 세계!", "안녕하세요 세계"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  spaced   out  ",
		"It's 'quoted'",
		"a . b",
		"MiXeD;CaSe:text",
		"",
	}
	for _, s := range inputs {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		recognized string
		want       bool
	}{
		{"punctuation and case ignored", "Hello world", "hello, world!", true},
		{"identical", "The cat sat.", "The cat sat.", true},
		{"different word", "Hello world", "hello word", false},
		{"empty recognition", "Hello world", "", false},
		{"whitespace only recognition", "Hello world", "   ", false},
		{"extra word", "Hello world", "hello world again", false},
		{"no partial credit", "Hello world", "hello", false},
		{"ellipsis matches itself", "...", "...", true},
		{"punctuation only matches itself", "!?", "!?", true},
		{"punctuation only target with empty recognition", "!?", "", true},
		{"punctuation only target with words", "...", "hello", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.target, tt.recognized); got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.target, tt.recognized, got, tt.want)
			}
		})
	}
}

func TestScoreSelfMatch(t *testing.T) {
	for _, s := range []string{"Hello world", "The cat sat.", "...", "!?", "안녕하세요, 세계!", "  spaced  "} {
		if !Score(s, s) {
			t.Errorf("Score(%q, %q) = false, want true", s, s)
		}
	}
}

func TestScoreMatchesNormalizedInputs(t *testing.T) {
	pairs := [][2]string{
		{"Hello world", "hello, world!"},
		{"Good morning.", "good evening"},
		{"Yes!", "yes"},
	}
	for _, p := range pairs {
		if Score(p[0], p[1]) != Score(Normalize(p[0]), Normalize(p[1])) {
			t.Errorf("Score changes after normalizing %q / %q", p[0], p[1])
		}
	}
}
