package patch

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Descriptor is the serializable view of a Set.
type Descriptor struct {
	Objects []ObjectDescriptor `yaml:"objects"`
}

// ObjectDescriptor describes one object.
type ObjectDescriptor struct {
	Name    string             `yaml:"name"`
	Targets []TargetDescriptor `yaml:"targets"`
}

// TargetDescriptor describes one entry.
type TargetDescriptor struct {
	Name       string `yaml:"name"`
	Substitute string `yaml:"substitute"`
	Cleanup    string `yaml:"cleanup,omitempty"`
}

// Describe returns the serializable view of s.
func (s *Set) Describe() Descriptor {
	d := Descriptor{Objects: make([]ObjectDescriptor, 0, len(s.Objects))}
	for _, obj := range s.Objects {
		od := ObjectDescriptor{Name: obj.Name, Targets: make([]TargetDescriptor, 0, len(obj.Entries))}
		for _, e := range obj.Entries {
			td := TargetDescriptor{Name: e.Target, Substitute: e.Substitute}
			if e.Cleanup != nil {
				td.Cleanup = e.Target + CleanupSuffix
			}
			od.Targets = append(od.Targets, td)
		}
		d.Objects = append(d.Objects, od)
	}
	return d
}

// WriteYAML writes the descriptor of s to w.
func (s *Set) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Describe()); err != nil {
		return err
	}
	return enc.Close()
}
