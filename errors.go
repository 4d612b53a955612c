// Package wxrcore is the root of the streaming WXR entity reader and
// block-markup/URL rewriting core. Subpackages implement the five layers:
// bytestream (L1), xmltoken (L2), wxr (L3), urlstream (L4) and markup (L5).
package wxrcore

import "fmt"

// Transient signals are not errors: they tell the caller to supply more
// input (or mark EOF) and call the next API again.
var (
	// ErrNeedMoreInput is returned by an xmltoken.Processor step when the
	// next token cannot be completed with the bytes appended so far.
	ErrNeedMoreInput = fmt.Errorf("wxrcore: need more input")

	// ErrNotEnoughData is returned by a bytestream.Source pull in EXACTLY
	// mode when the stream ends before the requested byte count arrives.
	ErrNotEnoughData = fmt.Errorf("wxrcore: not enough data")
)

// FatalError means the producing layer cannot make further progress on the
// document: malformed XML, invalid UTF-8 in a name, a mismatched block
// closer, and so on. URL parse failures (a bad host, a port over 65535)
// are reported as *InvalidUrl instead. A FatalError halts the layer that
// raised it; the caller receives it from the next call to its read method.
type FatalError struct {
	// Component names the layer that raised the error, e.g. "xmltoken",
	// "wxr", "urlstream", "markup".
	Component string
	// Reason is a short machine-checkable tag, e.g. "invalid-utf8",
	// "xml-unsupported", "mismatched-closer", "cursor-decode".
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Err }

// XmlUnsupported builds a FatalError for unsupported XML constructs (DTDs,
// processing instructions other than the XML declaration, external entity
// references, excessive nesting). The consumer may treat this as a signal
// to pivot to a coarser parser.
func XmlUnsupported(reason string) *FatalError {
	return &FatalError{Component: "xmltoken", Reason: "xml-unsupported: " + reason}
}

// InvalidXml builds a FatalError for any other XML malformation.
func InvalidXml(reason string, err error) *FatalError {
	return &FatalError{Component: "xmltoken", Reason: "invalid-xml: " + reason, Err: err}
}

// WxrMissingVersion is raised when a WXR document reaches EOF without a
// wxr_version matching \d+\.\d+.
var WxrMissingVersion = &FatalError{Component: "wxr", Reason: "missing-version"}

// ConflictingEdit is raised when two staged markup edits overlap in byte
// range.
type ConflictingEdit struct {
	FirstStart, FirstEnd   int
	SecondStart, SecondEnd int
}

func (e *ConflictingEdit) Error() string {
	return fmt.Sprintf("markup: conflicting edit [%d,%d) overlaps [%d,%d)",
		e.SecondStart, e.SecondEnd, e.FirstStart, e.FirstEnd)
}

// InvalidUrlKind enumerates the boundary error kinds for InvalidUrl.
type InvalidUrlKind string

const (
	InvalidUrlHost   InvalidUrlKind = "host"
	InvalidUrlPort   InvalidUrlKind = "port"
	InvalidUrlScheme InvalidUrlKind = "scheme"
	InvalidUrlIPv4   InvalidUrlKind = "ipv4"
	InvalidUrlIPv6   InvalidUrlKind = "ipv6"
	InvalidUrlIDNA   InvalidUrlKind = "idna"
	InvalidUrlOpaque InvalidUrlKind = "opaque-host"
)

// InvalidUrl is raised by the urlstream parser when the WHATWG state
// machine mandates failure.
type InvalidUrl struct {
	Kind   InvalidUrlKind
	Detail string
}

func (e *InvalidUrl) Error() string {
	return fmt.Sprintf("urlstream: invalid url (%s): %s", e.Kind, e.Detail)
}

// RecoverableError is a validation-only signal: the layer logs it through
// the context logger and continues parsing. It is never returned as a hard
// failure from a read method.
type RecoverableError struct {
	Component string
	Reason    string
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: recoverable: %s", e.Component, e.Reason)
}
