// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
)

// validateDescriptors checks a batch before any job is created.
func validateDescriptors(items []*Descriptor) error {
	if len(items) == 0 {
		return configErrorf("items", nil, "at least one input is required")
	}
	indices := make(map[int]int, len(items))
	for position, item := range items {
		field := fmt.Sprintf("items[%d]", position)
		if item == nil {
			return configErrorf(field, nil, "descriptor is nil")
		}
		if item.Source == nil {
			return configErrorf(field+".source", nil, "%s has no source", item.Name)
		}
		if item.Index < 0 {
			return configErrorf(field+".index", nil, "index must not be negative, got %d", item.Index)
		}
		if previous, duplicate := indices[item.Index]; duplicate {
			return configErrorf(field+".index", nil, "index %d already used by items[%d]", item.Index, previous)
		}
		indices[item.Index] = position
		if item.Size < SizeUnknown {
			return configErrorf(field+".size", nil, "size must be non-negative or unknown, got %d", item.Size)
		}
		if sizer, ok := item.Source.(Sizer); ok && item.Size != SizeUnknown {
			if actual, known := sizer.Size(); known && actual != item.Size {
				return configErrorf(field+".size", nil, "%s declares %d bytes but its source has %d",
					item.Name, item.Size, actual)
			}
		}
	}
	return nil
}
