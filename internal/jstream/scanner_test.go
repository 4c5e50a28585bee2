package jstream

import (
	"testing"
)

// tv is a compact token descriptor for test assertions.
type tv struct {
	t TokenType
	v string
}

// scanChunks feeds chunks through s the way a byte source would: the
// unconsumed tail of each chunk is carried into the next.
func scanChunks(s *Scanner, chunks []string) ([]tv, error) {
	var out []tv
	var buf []byte
	for _, ch := range chunks {
		buf = append(buf, ch...)
		pos := 0
		for {
			tok, ok := s.Next(buf, &pos)
			if !ok {
				if err := s.Err(); err != nil {
					return out, err
				}
				break
			}
			out = append(out, tv{tok.Type, tok.Value})
		}
		buf = append(buf[:0], buf[pos:]...)
	}
	return out, nil
}

func scanOrFail(t *testing.T, chunks []string) []tv {
	t.Helper()
	got, err := scanChunks(NewScanner(), chunks)
	if err != nil {
		t.Fatalf("scan(%q) error: %v", chunks, err)
	}
	return got
}

func assertTokens(t *testing.T, got, want []tv) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count: got %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i, w := range want {
		g := got[i]
		if g.t != w.t || g.v != w.v {
			t.Errorf("token[%d]: got {%v %q}, want {%v %q}", i, g.t, g.v, w.t, w.v)
		}
	}
}

func TestScanner_SimpleObject(t *testing.T) {
	t.Parallel()
	got := scanOrFail(t, []string{`{"a":1,"b":"x"}`})
	want := []tv{
		{TokenObjectOpen, ""},
		{TokenString, "a"},
		{TokenColon, ""},
		{TokenNumber, "1"},
		{TokenComma, ""},
		{TokenString, "b"},
		{TokenColon, ""},
		{TokenString, "x"},
		{TokenObjectClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_WhitespaceSkipped(t *testing.T) {
	t.Parallel()
	got := scanOrFail(t, []string{" \t\r\n\f[ 1 ,\n2 ]"})
	want := []tv{
		{TokenArrayOpen, ""},
		{TokenNumber, "1 "},
		{TokenComma, ""},
		{TokenNumber, "2 "},
		{TokenArrayClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_KeywordsAndNumbers(t *testing.T) {
	t.Parallel()
	got := scanOrFail(t, []string{`[true,false,null,-1.5e+10]`})
	want := []tv{
		{TokenArrayOpen, ""},
		{TokenTrue, ""},
		{TokenComma, ""},
		{TokenFalse, ""},
		{TokenComma, ""},
		{TokenNull, ""},
		{TokenComma, ""},
		{TokenNumber, "-1.5e+10"},
		{TokenArrayClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_ByteAtATimeMatchesWholeInput(t *testing.T) {
	t.Parallel()
	doc := `{"columns":[{"name":"a","type":"bigint"}],"data":[[1,null,true]],"stats":{"state":"RUNNING"}}`

	whole := scanOrFail(t, []string{doc})

	var split []string
	for i := 0; i < len(doc); i++ {
		split = append(split, doc[i:i+1])
	}
	chunked := scanOrFail(t, split)

	assertTokens(t, chunked, whole)
}

func TestScanner_KeywordSplitAcrossChunks(t *testing.T) {
	t.Parallel()
	got := scanOrFail(t, []string{"[tr", "ue,fa", "lse,nu", "ll]"})
	want := []tv{
		{TokenArrayOpen, ""},
		{TokenTrue, ""},
		{TokenComma, ""},
		{TokenFalse, ""},
		{TokenComma, ""},
		{TokenNull, ""},
		{TokenArrayClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_StringSplitAcrossChunks(t *testing.T) {
	t.Parallel()
	got := scanOrFail(t, []string{`["hel`, `lo"]`})
	want := []tv{
		{TokenArrayOpen, ""},
		{TokenString, "hello"},
		{TokenArrayClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_MultibyteSplitAcrossChunks(t *testing.T) {
	t.Parallel()
	// "héllo→" contains a 2-byte and a 3-byte sequence; split inside both
	doc := []byte(`["héllo→"]`)
	var chunks []string
	// cut in the middle of the é (bytes 3/4) and of the → (three cuts)
	cuts := []int{0, 4, 5, 9, 10, 11, len(doc)}
	for i := 0; i+1 < len(cuts); i++ {
		chunks = append(chunks, string(doc[cuts[i]:cuts[i+1]]))
	}
	got := scanOrFail(t, chunks)
	want := []tv{
		{TokenArrayOpen, ""},
		{TokenString, "héllo→"},
		{TokenArrayClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_EscapesPreservedVerbatim(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  string
	}{
		{`["a\"b"]`, `a\"b`},
		{`["a\\"]`, `a\\`},
		{`["line\nbreak"]`, `line\nbreak`},
		{`["A"]`, `A`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got := scanOrFail(t, []string{tc.input})
			want := []tv{
				{TokenArrayOpen, ""},
				{TokenString, tc.want},
				{TokenArrayClose, ""},
			}
			assertTokens(t, got, want)
		})
	}
}

func TestScanner_EscapeSplitAcrossChunks(t *testing.T) {
	t.Parallel()
	got := scanOrFail(t, []string{`["a\`, `"b"]`})
	want := []tv{
		{TokenArrayOpen, ""},
		{TokenString, `a\"b`},
		{TokenArrayClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_BareBackslashError(t *testing.T) {
	t.Parallel()
	s := NewScanner()
	_, err := scanChunks(s, []string{`[\]`})
	if err == nil {
		t.Fatal("expected error for bare backslash, got nil")
	}
	if s.Err() == nil {
		t.Fatal("Err() should report failure")
	}
	// a failed scanner yields no further tokens
	pos := 0
	if _, ok := s.Next([]byte(`{}`), &pos); ok {
		t.Fatal("failed scanner produced a token")
	}
}

func TestScanner_Reset(t *testing.T) {
	t.Parallel()
	s := NewScanner()
	if _, err := scanChunks(s, []string{`[\]`}); err == nil {
		t.Fatal("expected error")
	}
	s.Reset()
	if s.Err() != nil {
		t.Fatalf("Err() after Reset: %v", s.Err())
	}
	got, err := scanChunks(s, []string{`[1]`})
	if err != nil {
		t.Fatalf("scan after Reset: %v", err)
	}
	want := []tv{
		{TokenArrayOpen, ""},
		{TokenNumber, "1"},
		{TokenArrayClose, ""},
	}
	assertTokens(t, got, want)
}

func TestScanner_PartialTailStaysUnconsumed(t *testing.T) {
	t.Parallel()
	s := NewScanner()
	// é is 0xc3 0xa9; feed only the first byte
	data := []byte{'[', '"', 0xc3}
	pos := 0
	if _, ok := s.Next(data, &pos); ok {
		// array open is fine
	}
	for {
		if _, ok := s.Next(data, &pos); !ok {
			break
		}
	}
	if pos != 2 {
		t.Fatalf("consumed %d bytes, want 2 (partial sequence preserved)", pos)
	}
}
