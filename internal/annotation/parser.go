package annotation

import "strings"

// state is the scanner's position in the annotation grammar
type state int

const (
	stateReady state = iota
	stateReadingKey
	stateAfterKey
	stateSeekingNewLine
	stateReadingMultiArgs
	stateReadingOneLineArgs
	stateReadingItem
	stateReadingItemString
	stateReadingItemStrEscaping
)

var stateNames = [...]string{
	stateReady:                  "READY",
	stateReadingKey:             "READING_KEY",
	stateAfterKey:               "AFTER_KEY",
	stateSeekingNewLine:         "SEEKING_NEW_LINE",
	stateReadingMultiArgs:       "READING_MULTI_ARGS",
	stateReadingOneLineArgs:     "READING_ONE_LINE_ARGS",
	stateReadingItem:            "READING_ITEM",
	stateReadingItemString:      "READING_ITEM_STRING",
	stateReadingItemStrEscaping: "READING_ITEM_STR_ESCAPING",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// trimChars is the set stripped from unquoted values and one-line text
const trimChars = " \t\n\r\x00\x0b"

// Parse extracts annotations from a raw doc comment.
//
// Parse never fails. Text outside @name spans is skipped and constructs cut
// off by the end of input are dropped without emitting a value.
func Parse(text string) Result {
	s := newScanner(Normalize(text))
	s.run()
	return s.result
}

// scanner holds the per-call state of one pass over normalized text
type scanner struct {
	text  string
	state state

	// tagStart is the offset of the '@' opening the current tag
	tagStart int
	start    int
	name     string
	items    Args

	// pendingKey is set by '=' inside an item and consumed by the next value
	pendingKey string
	hasKey     bool

	// afterGroup is true between a closing ')' and the end of its line
	afterGroup bool

	result Result

	// issue, when set, is told about every construct the permissive scan
	// silently tolerates
	issue func(offset int, tag, message string)
}

func newScanner(text string) *scanner {
	return &scanner{text: text}
}

func (s *scanner) run() {
	text := s.text
	for p := 0; p < len(text); p++ {
		c := text[p]

		switch s.state {
		case stateReady:
			if isWhite(c) {
				continue
			}
			if c == '@' {
				s.state = stateReadingKey
				s.tagStart = p
				s.start = p + 1
				continue
			}
			s.state = stateSeekingNewLine

		case stateSeekingNewLine:
			if c == '\n' {
				s.afterGroup = false
				s.state = stateReady
			} else if s.afterGroup && !isBlank(c) {
				s.afterGroup = false
				s.report(p, "", "text after argument list is ignored")
			}

		case stateReadingKey:
			if !isNameChar(c) {
				s.name = text[s.start:p]
				if s.name == "" {
					s.report(s.tagStart, "", "annotation name is empty")
				}
				s.state = stateAfterKey
				p--
			}

		case stateAfterKey:
			switch {
			case isBlank(c):
			case c == '\n':
				s.emit(Bool())
				s.state = stateReady
			case c == '(':
				s.items = nil
				s.state = stateReadingMultiArgs
			default:
				s.start = p
				s.state = stateReadingOneLineArgs
			}

		case stateReadingOneLineArgs:
			if c == '\n' {
				s.emit(String(strings.Trim(text[s.start:p], trimChars)))
				s.state = stateReady
			}

		case stateReadingMultiArgs:
			if isWhite(c) {
				continue
			}
			switch c {
			case ',':
			case '"':
				s.start = p + 1
				s.state = stateReadingItemString
			case ')':
				if len(s.items) > 0 {
					s.emit(ArgsValue(s.items))
				} else {
					s.emit(Bool())
				}
				s.afterGroup = true
				s.state = stateSeekingNewLine
			default:
				s.start = p
				s.state = stateReadingItem
			}

		case stateReadingItem:
			switch c {
			case ',', ')':
				s.store(strings.Trim(text[s.start:p], trimChars))
				s.state = stateReadingMultiArgs
				if c == ')' {
					p--
				}
			case '=':
				if !s.hasKey {
					s.pendingKey = strings.Trim(text[s.start:p], trimChars)
					s.hasKey = true
					s.start = p
					s.state = stateReadingMultiArgs
				}
			}

		case stateReadingItemString:
			switch c {
			case '"':
				s.store(unescape(text[s.start:p]))
				s.state = stateReadingMultiArgs
			case '\\':
				s.state = stateReadingItemStrEscaping
			}

		case stateReadingItemStrEscaping:
			s.state = stateReadingItemString
		}
	}

	s.finish()
}

// emit records a value for the current tag and resets the tag accumulators
func (s *scanner) emit(value Value) {
	s.result.Add(s.name, value)
	s.reset()
}

// store adds a finished item to the argument list, keyed when a non-empty
// key is pending
func (s *scanner) store(value string) {
	if s.hasKey && s.pendingKey != "" {
		s.items = s.items.set(s.pendingKey, value)
	} else {
		s.items = s.items.push(value)
	}
	s.pendingKey = ""
	s.hasKey = false
}

func (s *scanner) reset() {
	s.name = ""
	s.items = nil
	s.pendingKey = ""
	s.hasKey = false
}

// finish reports a tag left open by the end of input. Nothing is emitted.
func (s *scanner) finish() {
	switch s.state {
	case stateReadingKey:
		s.report(s.tagStart, s.text[s.start:], "annotation cut off by end of input")
	case stateAfterKey, stateReadingOneLineArgs:
		s.report(s.tagStart, s.name, "annotation cut off by end of input")
	case stateReadingMultiArgs, stateReadingItem:
		s.report(s.tagStart, s.name, "unterminated argument list")
	case stateReadingItemString, stateReadingItemStrEscaping:
		s.report(s.tagStart, s.name, "unterminated quoted string")
	}
}

func (s *scanner) report(offset int, tag, message string) {
	if s.issue != nil {
		s.issue(offset, tag, message)
	}
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '_' || c == '-' || c == '.'
}

// unescape drops one backslash from every escape sequence, keeping the
// escaped byte as is
func unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			if i == len(s) {
				break
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
