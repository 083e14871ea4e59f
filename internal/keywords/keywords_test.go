package keywords

import "testing"

func TestParseSplitsFieldsHeaderAndTransport(t *testing.T) {
	parsed, err := Parse([]string{
		"msgId:5",
		"header:length:8",
		"name=client1",
		"timeout=2.0",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Fields["msgId"] != "5" {
		t.Fatalf("Fields[msgId] = %q, want 5", parsed.Fields["msgId"])
	}
	if parsed.HeaderFields["length"] != "8" {
		t.Fatalf("HeaderFields[length] = %q, want 8", parsed.HeaderFields["length"])
	}
	if parsed.Transport["name"] != "client1" {
		t.Fatalf("Transport[name] = %q, want client1", parsed.Transport["name"])
	}
	if parsed.Transport["timeout"] != "2.0" {
		t.Fatalf("Transport[timeout] = %q, want 2.0", parsed.Transport["timeout"])
	}
}

func TestParseColonBeforeEqualsIsField(t *testing.T) {
	// ':' appears before '=' -> field value, value itself contains '='.
	parsed, err := Parse([]string{"outer.inner:a=b"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Fields["outer.inner"] != "a=b" {
		t.Fatalf("Fields[outer.inner] = %q, want a=b", parsed.Fields["outer.inner"])
	}
}

func TestParseEqualsBeforeColonIsTransport(t *testing.T) {
	// '=' appears before ':' -> transport config, value contains ':'.
	parsed, err := Parse([]string{"note=a:b"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Transport["note"] != "a:b" {
		t.Fatalf("Transport[note] = %q, want a:b", parsed.Transport["note"])
	}
}

func TestParseRejectsTokenWithNeitherSeparator(t *testing.T) {
	_, err := Parse([]string{"justaword"})
	if err == nil {
		t.Fatalf("Parse(justaword) = nil error, want syntax error")
	}
}

func TestParseIndexedListField(t *testing.T) {
	parsed, err := Parse([]string{"list[0].field:abc"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Fields["list[0].field"] != "abc" {
		t.Fatalf("Fields[list[0].field] = %q, want abc", parsed.Fields["list[0].field"])
	}
}
