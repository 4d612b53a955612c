package xmltoken

import "github.com/wxrmigrate/wxrcore"

// InvalidXml and XmlUnsupported are thin local aliases of the root
// package's fatal-error constructors, so the rest of this package can
// raise them without qualifying every call site.
func InvalidXml(reason string, err error) error {
	return wxrcore.InvalidXml(reason, err)
}

func XmlUnsupported(reason string) error {
	return wxrcore.XmlUnsupported(reason)
}
