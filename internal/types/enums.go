package types

type PackageFormat string

const (
	FormatOSX PackageFormat = "osx"
	FormatIOS PackageFormat = "ios"
	FormatDeb PackageFormat = "deb"
	FormatMSI PackageFormat = "msi"
)

// SupportedFormats lists every format with a packager implementation,
// in documentation order.
func SupportedFormats() []PackageFormat {
	return []PackageFormat{FormatOSX, FormatIOS, FormatDeb, FormatMSI}
}

func (f PackageFormat) Valid() bool {
	switch f {
	case FormatOSX, FormatIOS, FormatDeb, FormatMSI:
		return true
	default:
		return false
	}
}
