package utils

import "testing"

// TestExtractJSONFromCodeBlock 验证从代码块中提取 JSON
func TestExtractJSONFromCodeBlock(t *testing.T) {
	content := "Here you go:\n```json\n{\"assessment\": \"Likely sensitivity\", \"urgency\": \"Soon\"}\n```\nTake care."
	got := ExtractJSON(content)
	want := `{"assessment": "Likely sensitivity", "urgency": "Soon"}`
	if got != want {
		t.Fatalf("unexpected json: %s", got)
	}
}

// TestExtractJSONIgnoresBracesInStrings 字符串中的花括号不影响深度
func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	content := `{"notes": "use } and { freely", "nested": {"quote": "say \"}\""}} trailing`
	got := ExtractJSON(content)
	want := `{"notes": "use } and { freely", "nested": {"quote": "say \"}\""}}`
	if got != want {
		t.Fatalf("unexpected json: %s", got)
	}
}

func TestExtractJSONWithoutObject(t *testing.T) {
	content := "I am unable to help with that."
	if got := ExtractJSON(content); got != content {
		t.Fatalf("expected original content, got %s", got)
	}
	unterminated := `{"assessment": "cut off`
	if got := ExtractJSON(unterminated); got != unterminated {
		t.Fatalf("expected original content for unterminated object, got %s", got)
	}
}
