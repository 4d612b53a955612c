package markup

// EventKind discriminates a Processor Event.
type EventKind int

const (
	EventTagOpen EventKind = iota
	EventTagClose
	EventText
	EventComment
	EventBlockOpener
	EventBlockCloser
	EventBlockSelfClosing
)

// Event is one higher-level markup event: a plain tag/text/comment token,
// or a block delimiter comment recognized and dispatched against the open
// block stack.
type Event struct {
	Kind  EventKind
	Start int
	End   int

	Tag  *Token // EventTagOpen, EventTagClose
	Text string // EventText, EventComment

	Block *Block // EventBlockOpener, EventBlockCloser, EventBlockSelfClosing
}

// Warning is a recoverable note recorded in place of a hard failure:
// currently only "suspicious-delimiter" (malformed block attribute JSON,
// downgraded to a plain comment per §4.5).
type Warning struct {
	Offset int
	Reason string
}

// Processor layers the block-comment parser and block stack over a
// Scanner, per §4.5.
type Processor struct {
	scanner  *Scanner
	stack    Stack
	Warnings []Warning
	fatal    error
}

// NewProcessor creates a Processor over a complete in-memory document.
func NewProcessor(doc string) *Processor {
	return &Processor{scanner: NewScanner(doc)}
}

// Depth returns the current block nesting depth (get_block_depth()).
func (p *Processor) Depth() int { return p.stack.Depth() }

// Next returns the next Event, or (nil, nil) at end of document. A
// mismatched block closer is a FatalError: per §4.5, the stack stops
// advancing and the error is returned from this call and every subsequent
// one until the caller gives up.
func (p *Processor) Next() (*Event, error) {
	if p.fatal != nil {
		return nil, p.fatal
	}
	tok, err := p.scanner.Next()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}

	switch tok.Kind {
	case KindTagOpen:
		return &Event{Kind: EventTagOpen, Start: tok.Start, End: tok.End, Tag: tok}, nil
	case KindTagClose:
		return &Event{Kind: EventTagClose, Start: tok.Start, End: tok.End, Tag: tok}, nil
	case KindText:
		return &Event{Kind: EventText, Start: tok.Start, End: tok.End, Text: tok.Text}, nil
	case KindComment:
		blk, ok := parseBlockDelimiter(tok.Text)
		if !ok {
			return &Event{Kind: EventComment, Start: tok.Start, End: tok.End, Text: tok.Text}, nil
		}
		blk.CommentStart, blk.CommentEnd = tok.Start, tok.End

		if blk.Suspicious {
			p.Warnings = append(p.Warnings, Warning{Offset: tok.Start, Reason: "suspicious-delimiter"})
			return &Event{Kind: EventComment, Start: tok.Start, End: tok.End, Text: tok.Text}, nil
		}

		switch {
		case blk.Closer:
			if err := p.stack.Pop(blk.Name); err != nil {
				p.fatal = err
				return nil, err
			}
			return &Event{Kind: EventBlockCloser, Start: tok.Start, End: tok.End, Block: &blk}, nil
		case blk.SelfClosing:
			return &Event{Kind: EventBlockSelfClosing, Start: tok.Start, End: tok.End, Block: &blk}, nil
		default:
			p.stack.Push(blk.Name)
			return &Event{Kind: EventBlockOpener, Start: tok.Start, End: tok.End, Block: &blk}, nil
		}
	}
	return p.Next()
}
