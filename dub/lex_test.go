package dub

import "testing"

func TestLexer(t *testing.T) {
	type test struct {
		input  string
		expect []token
	}
	tests := []test{
		{
			input: "A '* 2",
			expect: []token{
				token{typ: typeIdentifier, text: "A"},
				token{typ: typeQuote, text: "'"},
				token{typ: typeAsterisk, text: "*"},
				token{typ: typeInt, text: "2"},
				token{typ: typeEOF},
			},
		},
		{
			input: "A 1 2",
			expect: []token{
				token{typ: typeIdentifier, text: "A"},
				token{typ: typeInt, text: "1"},
				token{typ: typeInt, text: "2"},
				token{typ: typeEOF},
			},
		},
		{
			input: "'1:2 /    / 3,4",
			expect: []token{
				token{typ: typeQuote, text: "'"},
				token{typ: typeInt, text: "1"},
				token{typ: typeColon, text: ":"},
				token{typ: typeInt, text: "2"},
				token{typ: typeSlash, text: "/"},
				token{typ: typeSlash, text: "/"},
				token{typ: typeInt, text: "3"},
				token{typ: typeComma, text: ","},
				token{typ: typeInt, text: "4"},
				token{typ: typeEOF},
			},
		},
		{
			input: "1.0",
			expect: []token{
				token{typ: typeFloat, text: "1.0"},
				token{typ: typeEOF},
			},
		},
		{
			input: "-1.",
			expect: []token{
				token{typ: typeFloat, text: "-1."},
				token{typ: typeEOF},
			},
		},
		{
			input: "-.1",
			expect: []token{
				token{typ: typeFloat, text: "-.1"},
				token{typ: typeEOF},
			},
		},
		{
			input: `command "this is a string" 1`,
			expect: []token{
				token{typ: typeIdentifier, text: "command"},
				token{typ: typeString, text: `"this is a string"`},
				token{typ: typeInt, text: "1"},
				token{typ: typeEOF},
			},
		},
		{
			input: "set lfo_rate 0.25",
			expect: []token{
				token{typ: typeIdentifier, text: "set"},
				token{typ: typeIdentifier, text: "lfo_rate"},
				token{typ: typeFloat, text: "0.25"},
				token{typ: typeEOF},
			},
		},
		{
			input: "preset test-vca-offset",
			expect: []token{
				token{typ: typeIdentifier, text: "preset"},
				token{typ: typeIdentifier, text: "test-vca-offset"},
				token{typ: typeEOF},
			},
		},
		{
			input: "on c4 F#3 bb-1",
			expect: []token{
				token{typ: typeIdentifier, text: "on"},
				token{typ: typeNote, text: "c4"},
				token{typ: typeNote, text: "F#3"},
				token{typ: typeNote, text: "bb-1"},
				token{typ: typeEOF},
			},
		},
		{
			input: "loop c4x h4 c10",
			expect: []token{
				token{typ: typeIdentifier, text: "loop"},
				token{typ: typeIdentifier, text: "c4x"},
				token{typ: typeIdentifier, text: "h4"},
				token{typ: typeIdentifier, text: "c10"},
				token{typ: typeEOF},
			},
		},
		{
			input: "mode poly2",
			expect: []token{
				token{typ: typeIdentifier, text: "mode"},
				token{typ: typeIdentifier, text: "poly2"},
				token{typ: typeEOF},
			},
		},
	}
	for _, test := range tests {
		t.Log(test.input)
		tokens, err := lex(test.input)
		if err != nil {
			t.Errorf("unexpected lex error: %v", err)
			continue
		}
		if len(tokens) != len(test.expect) {
			t.Fatalf("token mismatch: \nwant: %+v, \ngot:  %+v", test.expect, tokens)
		}
		for i, got := range tokens {
			want := test.expect[i]
			if want.typ != got.typ {
				t.Errorf("wrong type: want %v, got %v", want, got)
			}
			if want.text != got.text {
				t.Errorf("wrong text: want %v, got %v", want, got)
			}
		}
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{
		"a -",
		"a .-",
		`load "unterminated`,
		"set cutoff=1",
		"on c#",
		"on g#9",
		"on x#1",
	} {
		_, err := lex(input)
		if err == nil {
			t.Errorf("expected error for input: %q", input)
		}
	}
}
