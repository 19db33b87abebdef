package def

import (
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Stats counts what happened to the candidate pin blocks of one file.
// A candidate is any "- name ..." block carrying a "+ NET" clause.
type Stats struct {
	Candidates int
	Parsed     int
	Skipped    []Skip
}

func (s Stats) String() string {
	return fmt.Sprintf("parsed %d of %d candidate blocks", s.Parsed, s.Candidates)
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLayer selects the routing layer whose geometry is extracted
func WithLayer(layer string) Option {
	return func(x *Extractor) {
		x.layer = layer
	}
}

// WithStrict turns the first skipped block into an error
func WithStrict() Option {
	return func(x *Extractor) {
		x.strict = true
	}
}

// Extractor scans DEF text for pin blocks.
// An Extractor keeps the header and statistics of the last scan and must
// not be shared between goroutines.
type Extractor struct {
	layer  string
	strict bool

	header Header
	stats  Stats
}

// NewExtractor creates an extractor for the default layer in permissive mode
func NewExtractor(opts ...Option) *Extractor {
	x := &Extractor{layer: DefaultLayer}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Layer returns the target layer name
func (x *Extractor) Layer() string { return x.layer }

// Header returns the design header seen by the last scan
func (x *Extractor) Header() Header { return x.header }

// Stats returns the counters of the last scan
func (x *Extractor) Stats() Stats { return x.stats }

type scanState int

const (
	seekingBlock scanState = iota
	inBlock
	seekingPlaced
)

// block accumulates the clauses of one "- name ... ;" statement
type block struct {
	name string
	line int

	net, direction, use          string
	hasNet, hasDirection, hasUse bool

	layer        string
	bbox         Rect
	hasGeometry  bool
	sawLayer     bool
	placement    Point
	orientation  Orientation
	hasPlacement bool

	malformed string
}

// Ports returns a lazy sequence of the pin records found in r, in file
// order. Dropped blocks are counted in Stats; in strict mode the first one
// is yielded as a *SkipError and the sequence ends. A lexer failure is
// yielded as an error and ends the sequence.
func (x *Extractor) Ports(filename string, r io.Reader) iter.Seq2[PortRecord, error] {
	return func(yield func(PortRecord, error) bool) {
		x.header = Header{Units: DefaultUnits()}
		x.stats = Stats{}

		ts, err := newTokenStream(filename, r)
		if err != nil {
			yield(PortRecord{}, err)
			return
		}

		state := seekingBlock
		var cur *block

		// finish closes the current block. It returns false when iteration
		// must stop.
		finish := func(terminated bool) bool {
			b := cur
			cur = nil
			state = seekingBlock
			rec, skip, ok := x.resolve(b, terminated)
			if !ok {
				return true
			}
			if skip != nil {
				x.stats.Skipped = append(x.stats.Skipped, *skip)
				if x.strict {
					yield(PortRecord{}, &SkipError{Path: filename, Skip: *skip})
					return false
				}
				return true
			}
			x.stats.Parsed++
			return yield(rec, nil)
		}

		for {
			tok := ts.next()

			switch state {
			case seekingBlock:
				if tok.EOF() {
					if ts.err != nil {
						yield(PortRecord{}, fmt.Errorf("%s: %w", filename, ts.err))
					}
					return
				}
				if isWord(tok, "-") {
					cur = x.beginBlock(ts, tok)
					state = inBlock
					continue
				}
				x.readHeader(ts, tok)

			case inBlock, seekingPlaced:
				switch {
				case ts.atBlockEnd(tok):
					if !finish(false) {
						return
					}
					// Let the seeking state see the new block, END or EOF
					ts.backup(tok)
				case tok.Type == tokSemicolon:
					if !finish(true) {
						return
					}
				case isWord(tok, "+"):
					state = x.readClause(ts, cur, state)
				}
			}
		}
	}
}

func (x *Extractor) beginBlock(ts *tokenStream, dash lexer.Token) *block {
	b := &block{line: dash.Pos.Line}
	// The word after "-" is the name even when it reads like a keyword
	tok := ts.next()
	if tok.Type != tokWord || isWord(tok, "+") || isWord(tok, "-") {
		ts.backup(tok)
		b.malformed = "missing block name"
		return b
	}
	b.name = tok.Value
	return b
}

// readClause consumes one "+ KEYWORD args" clause and returns the new state.
// Arguments of clauses that are not pin related are left for the caller,
// which steps over them.
func (x *Extractor) readClause(ts *tokenStream, b *block, state scanState) scanState {
	kw := ts.next()
	if kw.Type != tokWord || ts.atBlockEnd(kw) {
		ts.backup(kw)
		return state
	}

	switch kw.Value {
	case "NET":
		if v, ok := readWord(ts); ok {
			b.net, b.hasNet = v, true
		}
	case "DIRECTION":
		if v, ok := readWord(ts); ok {
			b.direction, b.hasDirection = v, true
		}
	case "USE":
		if v, ok := readWord(ts); ok {
			b.use, b.hasUse = v, true
		}
	case "LAYER":
		return x.readLayer(ts, b, state)
	case "PLACED":
		p, ok := readPoint(ts)
		if !ok {
			b.markMalformed("bad PLACED point")
			return state
		}
		orient, ok := readWord(ts)
		if !ok {
			b.markMalformed("PLACED without orientation")
			return state
		}
		// Only the placement following the target layer geometry belongs
		// to the port we extract.
		if state == seekingPlaced && !b.hasPlacement {
			b.placement = p
			b.orientation = Orientation(orient)
			b.hasPlacement = true
			return inBlock
		}
	}
	return state
}

// readLayer parses "LAYER name [MASK n] [SPACING n | DESIGNRULEWIDTH n] ( x1 y1 ) ( x2 y2 )"
func (x *Extractor) readLayer(ts *tokenStream, b *block, state scanState) scanState {
	name, ok := readWord(ts)
	if !ok {
		b.markMalformed("LAYER without name")
		return state
	}
	b.sawLayer = true

	// Step over optional keyword/value pairs up to the first point
	for {
		tok := ts.next()
		if tok.Type == tokLParen {
			ts.backup(tok)
			break
		}
		if tok.Type != tokWord || ts.atBlockEnd(tok) || isWord(tok, "+") {
			ts.backup(tok)
			b.markMalformed("LAYER " + name + " without rectangle")
			return state
		}
	}

	p1, ok1 := readPoint(ts)
	p2, ok2 := readPoint(ts)
	if !ok1 || !ok2 {
		b.markMalformed("bad LAYER " + name + " rectangle")
		return state
	}

	if name != x.layer || b.hasGeometry {
		return state
	}
	b.layer = name
	b.bbox = Rect{X1: p1.X, Y1: p1.Y, X2: p2.X, Y2: p2.Y}
	b.hasGeometry = true
	return seekingPlaced
}

func (b *block) markMalformed(detail string) {
	if b.malformed == "" {
		b.malformed = detail
	}
}

// resolve turns a finished block into a record or a skip. ok is false for
// blocks that are not pin candidates at all.
func (x *Extractor) resolve(b *block, terminated bool) (rec PortRecord, skip *Skip, ok bool) {
	if b == nil || !b.hasNet {
		return PortRecord{}, nil, false
	}
	x.stats.Candidates++

	newSkip := func(reason SkipReason, detail string) *Skip {
		return &Skip{Name: b.name, Line: b.line, Reason: reason, Detail: detail}
	}

	switch {
	case !terminated:
		return PortRecord{}, newSkip(SkipUnterminated, ""), true
	case b.malformed != "":
		return PortRecord{}, newSkip(SkipMalformed, b.malformed), true
	case !b.hasGeometry && b.sawLayer:
		return PortRecord{}, newSkip(SkipNonTargetLayer, "want "+x.layer), true
	case !b.hasGeometry:
		return PortRecord{}, newSkip(SkipMissingLayer, ""), true
	case !b.hasPlacement:
		return PortRecord{}, newSkip(SkipMissingPlaced, ""), true
	case !b.hasDirection:
		return PortRecord{}, newSkip(SkipMissingDirection, ""), true
	case !b.hasUse:
		return PortRecord{}, newSkip(SkipMissingUse, ""), true
	}

	return PortRecord{
		Name:        b.name,
		Net:         b.net,
		Direction:   ParseDirection(b.direction),
		Use:         ParseUse(b.use),
		Layer:       b.layer,
		BBox:        b.bbox,
		Placement:   b.placement,
		Orientation: b.orientation,
		Line:        b.line,
	}, nil, true
}

// readHeader picks up the design statements outside pin blocks
func (x *Extractor) readHeader(ts *tokenStream, tok lexer.Token) {
	if tok.Type != tokWord {
		return
	}
	switch tok.Value {
	case "END":
		// "END DESIGN" must not be read as a DESIGN statement
		ts.next()
	case "DESIGN":
		if v, ok := readWord(ts); ok {
			x.header.Design = v
		}
	case "UNITS":
		// UNITS DISTANCE MICRONS n ;
		for _, want := range []string{"DISTANCE", "MICRONS"} {
			next := ts.next()
			if !isWord(next, want) {
				ts.backup(next)
				return
			}
		}
		if v, ok := readInt(ts); ok && v > 0 {
			x.header.Units = Units{DBUPerMicron: v}
		}
	case "DIEAREA":
		bbox := Rect{}
		n := 0
		for {
			p, ok := readPoint(ts)
			if !ok {
				break
			}
			if n == 0 {
				bbox = Rect{X1: p.X, Y1: p.Y, X2: p.X, Y2: p.Y}
			} else {
				bbox.X1 = min(bbox.X1, p.X)
				bbox.Y1 = min(bbox.Y1, p.Y)
				bbox.X2 = max(bbox.X2, p.X)
				bbox.Y2 = max(bbox.Y2, p.Y)
			}
			n++
		}
		if n >= 2 {
			x.header.DieArea = bbox
			x.header.HasDie = true
		}
	}
}

// readWord consumes one plain word. Structural tokens are pushed back.
func readWord(ts *tokenStream) (string, bool) {
	tok := ts.next()
	if tok.Type != tokWord || ts.atBlockEnd(tok) || isWord(tok, "+") {
		ts.backup(tok)
		return "", false
	}
	return tok.Value, true
}

func readInt(ts *tokenStream) (int64, bool) {
	tok := ts.next()
	if tok.Type != tokWord {
		ts.backup(tok)
		return 0, false
	}
	v, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		ts.backup(tok)
		return 0, false
	}
	return v, true
}

// readPoint consumes "( x y )". Nothing is consumed if the next token is
// not an opening parenthesis.
func readPoint(ts *tokenStream) (Point, bool) {
	open := ts.next()
	if open.Type != tokLParen {
		ts.backup(open)
		return Point{}, false
	}
	x, ok := readInt(ts)
	if !ok {
		return Point{}, false
	}
	y, ok := readInt(ts)
	if !ok {
		return Point{}, false
	}
	closing := ts.next()
	if closing.Type != tokRParen {
		ts.backup(closing)
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

// Result is everything extracted from one DEF file
type Result struct {
	Path   string
	Header Header
	Ports  []PortRecord
	Stats  Stats
}

// Extract collects all records from r
func (x *Extractor) Extract(filename string, r io.Reader) (*Result, error) {
	res := &Result{Path: filename}
	for rec, err := range x.Ports(filename, r) {
		if err != nil {
			return nil, err
		}
		res.Ports = append(res.Ports, rec)
	}
	res.Header = x.header
	res.Stats = x.stats
	return res, nil
}

// ParseFile reads and extracts a DEF file
func ParseFile(path string, opts ...Option) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer file.Close()

	return NewExtractor(opts...).Extract(path, file)
}

// ParseString extracts records from DEF text held in memory
func ParseString(text string, opts ...Option) (*Result, error) {
	return NewExtractor(opts...).Extract("", strings.NewReader(text))
}
