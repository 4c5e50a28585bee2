package prestoclient

// feed appends one chunk of response bytes to the result's buffer and runs
// the tokenizer and lexer over it until the buffer is drained or the
// scanner needs more bytes. The unconsumed tail (at most a partial UTF-8
// sequence) is shifted to the front of the buffer so the next chunk
// continues the same character.
//
// feed reports false when the in-flight request should be aborted: a fatal
// parse failure or a pending cancellation.
func (r *Result) feed(chunk []byte) bool {
	r.buf = append(r.buf, chunk...)
	pos := 0
	for {
		tok, ok := r.scanner.Next(r.buf, &pos)
		if !ok {
			if r.scanner.Err() != nil {
				r.errorCode = ErrParseJSON
				return false
			}
			break
		}
		if err := r.lexer.Push(tok); err != nil {
			r.errorCode = ErrParseJSON
			return false
		}
	}
	r.buf = append(r.buf[:0], r.buf[pos:]...)
	return !r.cancelled()
}

// resetPipeline prepares the tokenizer and lexer for the next reply
// document and drops any buffered bytes.
func (r *Result) resetPipeline() {
	r.scanner.Reset()
	r.lexer.Reset()
	r.buf = r.buf[:0]
}
