package ai

import (
	"reflect"
	"testing"
)

func TestUnmarshalFlexible(t *testing.T) {
	type triple struct {
		Head     string `json:"head"`
		Relation string `json:"relation"`
		Tail     string `json:"tail"`
	}

	tests := []struct {
		name  string
		input string
		want  []triple
	}{
		{
			name:  "valid json array",
			input: `[{"head":"goat","relation":"deficient_in","tail":"vitamin_A"}]`,
			want:  []triple{{Head: "goat", Relation: "deficient_in", Tail: "vitamin_A"}},
		},
		{
			name:  "unquoted keys and single quotes",
			input: `[{head:'goat',relation:'deficient_in',tail:'vitamin_A'}]`,
			want:  []triple{{Head: "goat", Relation: "deficient_in", Tail: "vitamin_A"}},
		},
		{
			name:  "trailing comma",
			input: `[{"head":"goat","relation":"deficient_in","tail":"vitamin_A"},]`,
			want:  []triple{{Head: "goat", Relation: "deficient_in", Tail: "vitamin_A"}},
		},
		{
			name:  "missing closing bracket",
			input: `[{"head":"goat","relation":"deficient_in","tail":"vitamin_A"}`,
			want:  []triple{{Head: "goat", Relation: "deficient_in", Tail: "vitamin_A"}},
		},
		{
			name:  "stringified payload",
			input: `"[{\"head\":\"goat\",\"relation\":\"deficient_in\",\"tail\":\"vitamin_A\"}]"`,
			want:  []triple{{Head: "goat", Relation: "deficient_in", Tail: "vitamin_A"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []triple
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_DuplicateLeadingBrace(t *testing.T) {
	type report struct {
		Grade string `json:"grade"`
	}

	var got report
	if err := UnmarshalFlexible("{\n{\n  \"grade\": \"A\"\n}\n", &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if got.Grade != "A" {
		t.Fatalf("UnmarshalFlexible() grade = %q, want %q", got.Grade, "A")
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got []string
	if err := UnmarshalFlexible("no json here", &got); err == nil {
		t.Fatal("UnmarshalFlexible() expected error for unrecoverable input")
	}
}
