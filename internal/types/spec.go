package types

// LinuxSettings carries the desktop-entry extensions of the bundle
// overlay.
type LinuxSettings struct {
	MimeTypes   []string
	ExecArgs    []string
	UseTerminal bool
}

type DebSettings struct {
	// Depends is joined verbatim, in declared order, into the control
	// file's Depends field.
	Depends []string
}

type OSXSettings struct {
	Frameworks           []string
	MinimumSystemVersion string
	URLSchemes           []string
}

// BundleSpec is the fully-resolved bundle description.  It is produced
// exactly once by the resolver and treated as read-only afterwards:
// every fallback chain (overlay -> project metadata -> empty value) has
// already been applied, so packagers never consult the manifest again.
type BundleSpec struct {
	Name             string
	Identifier       string
	Version          string
	BinaryName       string
	Icons            []string
	Resources        []ResourceRef
	Copyright        string
	Category         string
	ShortDescription string
	LongDescription  string
	Homepage         string
	Authors          []string

	Linux LinuxSettings
	Deb   DebSettings
	OSX   OSXSettings
}

// ResourceMapping is one concrete copy produced by expanding a resource
// declaration: an absolute source file and its destination relative to
// the bundle's resource root.
type ResourceMapping struct {
	Source string
	Dest   string
}
