package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type ProjectSettings struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	Homepage    string   `yaml:"homepage,omitempty"`
	Authors     []string `yaml:"authors,omitempty"`
}

// ResourceRef is a single entry of the manifest's resources list.  It
// accepts either a plain string (a path or glob, destination defaulted)
// or an explicit mapping:
//
//	resources:
//	  - assets/logo.png
//	  - { from: "build/config/*.json", to: "config" }
type ResourceRef struct {
	From string `yaml:"from"`
	To   string `yaml:"to,omitempty"`
}

func (r *ResourceRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.From = node.Value
		r.To = ""
		return nil
	case yaml.MappingNode:
		type plain ResourceRef
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*r = ResourceRef(p)
		return nil
	default:
		return fmt.Errorf("resource entry must be a string or a from/to mapping (line %d)", node.Line)
	}
}

// BundleSettings is the manifest's bundle overlay.  Every field is
// optional; absent values fall back to project metadata during
// resolution.  Script is parsed but currently inert.
type BundleSettings struct {
	Name             string        `yaml:"name,omitempty"`
	Identifier       string        `yaml:"identifier,omitempty"`
	Icon             []string      `yaml:"icon,omitempty"`
	Version          string        `yaml:"version,omitempty"`
	Resources        []ResourceRef `yaml:"resources,omitempty"`
	Script           string        `yaml:"script,omitempty"`
	Copyright        string        `yaml:"copyright,omitempty"`
	Category         string        `yaml:"category,omitempty"`
	ShortDescription string        `yaml:"short_description,omitempty"`
	LongDescription  string        `yaml:"long_description,omitempty"`

	LinuxMimeTypes   []string `yaml:"linux_mime_types,omitempty"`
	LinuxExecArgs    []string `yaml:"linux_exec_args,omitempty"`
	LinuxUseTerminal *bool    `yaml:"linux_use_terminal,omitempty"`

	DebDepends []string `yaml:"deb_depends,omitempty"`

	OSXFrameworks           []string `yaml:"osx_frameworks,omitempty"`
	OSXMinimumSystemVersion string   `yaml:"osx_minimum_system_version,omitempty"`
	OSXURLSchemes           []string `yaml:"osx_url_schemes,omitempty"`
}

// Manifest is the on-disk bundle.yaml: project-level metadata plus the
// bundle overlay.
type Manifest struct {
	Project ProjectSettings `yaml:"project"`
	Bundle  BundleSettings  `yaml:"bundle"`
}
