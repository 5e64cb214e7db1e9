package models

import (
	"fmt"
	"strings"
)

// Filter is a resampling kernel. The set is closed; the zero value is invalid.
type Filter int

const (
	FilterNearest Filter = iota + 1
	FilterLanczos
	FilterBilinear
	FilterBicubic
	FilterBox
	FilterHamming
)

var allFilters = []Filter{
	FilterNearest,
	FilterLanczos,
	FilterBilinear,
	FilterBicubic,
	FilterBox,
	FilterHamming,
}

// AllFilters returns every filter in declaration order.
func AllFilters() []Filter {
	out := make([]Filter, len(allFilters))
	copy(out, allFilters)
	return out
}

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "NEAREST"
	case FilterLanczos:
		return "LANCZOS"
	case FilterBilinear:
		return "BILINEAR"
	case FilterBicubic:
		return "BICUBIC"
	case FilterBox:
		return "BOX"
	case FilterHamming:
		return "HAMMING"
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// Valid reports whether f is one of the declared kernels.
func (f Filter) Valid() bool {
	return f >= FilterNearest && f <= FilterHamming
}

// ParseFilter resolves a filter by name, ignoring case.
func ParseFilter(name string) (Filter, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for _, f := range allFilters {
		if f.String() == n {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown resample filter %q", name)
}

func (f *Filter) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseFilter(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
