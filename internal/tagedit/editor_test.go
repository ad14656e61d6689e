package tagedit

import (
	"reflect"
	"strings"
	"testing"
)

// recorder はOnChangeの呼び出しを記録する。
type recorder struct {
	calls [][]string
}

func (r *recorder) onChange(tags []string) {
	r.calls = append(r.calls, tags)
}

func (r *recorder) last() []string {
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

// typeText は1文字ずつ入力し、カンマをデリミタとして扱う。
func typeText(e *Editor, s string) {
	for _, r := range s {
		if r == ',' {
			e.Press(KeyDelimiter)
			continue
		}
		e.Input(e.Text() + string(r))
	}
}

func TestEditor_CommaSeparatedTyping(t *testing.T) {
	rec := &recorder{}
	e := New(nil, rec.onChange)

	typeText(e, "a,b,c")
	e.Press(KeyDelimiter)

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(rec.last(), want) {
		t.Errorf("tags = %v, want %v", rec.last(), want)
	}
	if e.Text() != "" {
		t.Errorf("Text() = %q, want empty", e.Text())
	}
}

func TestEditor_InputWithCommas_CommitsCompletedParts(t *testing.T) {
	rec := &recorder{}
	e := New(nil, rec.onChange)

	e.Input("a,b,c")

	if !reflect.DeepEqual(e.Tags(), []string{"a", "b"}) {
		t.Errorf("Tags() = %v, want [a b]", e.Tags())
	}
	if e.Text() != "c" {
		t.Errorf("Text() = %q, want %q", e.Text(), "c")
	}
}

func TestEditor_DuplicateIsIgnored(t *testing.T) {
	rec := &recorder{}
	e := New(nil, rec.onChange)

	e.Input("a")
	e.Press(KeyDelimiter)
	e.Input("a")
	e.Press(KeyDelimiter)

	if !reflect.DeepEqual(e.Tags(), []string{"a"}) {
		t.Errorf("Tags() = %v, want [a]", e.Tags())
	}
	if len(rec.calls) != 1 {
		t.Errorf("OnChange called %d times, want 1", len(rec.calls))
	}
	if e.Text() != "" {
		t.Errorf("Text() = %q, want cleared", e.Text())
	}
}

func TestEditor_WhitespaceOnlyIsIgnored(t *testing.T) {
	rec := &recorder{}
	e := New(nil, rec.onChange)

	e.Input("   ")
	e.Press(KeyDelimiter)

	if len(rec.calls) != 0 {
		t.Errorf("OnChange called %d times, want 0", len(rec.calls))
	}
	if e.Text() != "" {
		t.Errorf("Text() = %q, want cleared", e.Text())
	}
}

func TestEditor_TrimsCommittedText(t *testing.T) {
	e := New(nil, nil)

	e.Input("  ramen ")
	e.Press(KeyDelimiter)

	if !reflect.DeepEqual(e.Tags(), []string{"ramen"}) {
		t.Errorf("Tags() = %v, want [ramen]", e.Tags())
	}
}

func TestEditor_BackspaceOnEmptyField_RemovesLastTag(t *testing.T) {
	rec := &recorder{}
	e := New([]string{"a", "b"}, rec.onChange)

	e.Press(KeyBackspace)

	if !reflect.DeepEqual(rec.last(), []string{"a"}) {
		t.Errorf("tags = %v, want [a]", rec.last())
	}
}

func TestEditor_BackspaceWithText_KeepsTags(t *testing.T) {
	rec := &recorder{}
	e := New([]string{"a", "b"}, rec.onChange)

	e.Input("x")
	e.Press(KeyBackspace)

	if len(rec.calls) != 0 {
		t.Errorf("OnChange called %d times, want 0", len(rec.calls))
	}
}

func TestEditor_BackspaceWithoutTags_IsNoop(t *testing.T) {
	rec := &recorder{}
	e := New(nil, rec.onChange)

	e.Press(KeyBackspace)

	if len(rec.calls) != 0 {
		t.Errorf("OnChange called %d times, want 0", len(rec.calls))
	}
}

func TestEditor_Blur_CommitsPendingText(t *testing.T) {
	rec := &recorder{}
	e := New([]string{"a"}, rec.onChange)

	e.Input("b")
	e.Blur()

	if !reflect.DeepEqual(rec.last(), []string{"a", "b"}) {
		t.Errorf("tags = %v, want [a b]", rec.last())
	}
}

func TestEditor_Remove_ExactMatch(t *testing.T) {
	rec := &recorder{}
	e := New([]string{"Sushi", "sushi", "ramen"}, rec.onChange)

	e.Remove("sushi")

	if !reflect.DeepEqual(rec.last(), []string{"Sushi", "ramen"}) {
		t.Errorf("tags = %v, want [Sushi ramen]", rec.last())
	}

	e.Remove("udon")
	if len(rec.calls) != 1 {
		t.Errorf("removing unknown tag should not notify, calls = %d", len(rec.calls))
	}
}

func TestEditor_CallbackReceivesCopy(t *testing.T) {
	var got []string
	e := New(nil, func(tags []string) { got = tags })

	e.Input("a")
	e.Press(KeyDelimiter)
	got[0] = "mutated"

	if e.Tags()[0] != "a" {
		t.Errorf("editor state was mutated through callback slice: %v", e.Tags())
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"nil", nil, []string{}, false},
		{"trim and dedup", []string{" a", "b", "a ", "", "  "}, []string{"a", "b"}, false},
		{"too long", []string{strings.Repeat("あ", MaxTagLength+1)}, nil, true},
		{"max length ok", []string{strings.Repeat("あ", MaxTagLength)}, []string{strings.Repeat("あ", MaxTagLength)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_TooManyTags(t *testing.T) {
	tags := make([]string, MaxTags+1)
	for i := range tags {
		tags[i] = strings.Repeat("t", i+1)
	}

	if _, err := Normalize(tags); err == nil {
		t.Error("expected error for too many tags")
	}
}
