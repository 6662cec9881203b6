package vars

import (
	"log/slog"
	"sort"
)

// Catalog maps variable names to their descriptors.
type Catalog map[string]Descriptor

// BuildReport summarises how a descriptor table decoded.
type BuildReport struct {
	Records   int // records read from the table
	Malformed int // records decoded with substituted defaults or skipped
	Truncated bool
}

// Build decodes numVars-1 descriptor records from table. The producer's
// count includes a trailing sentinel which is not read. Malformed records
// are logged and kept with substituted defaults. When two records share a
// name the later one wins.
func Build(table []byte, numVars int) (Catalog, BuildReport) {
	var report BuildReport
	n := numVars - 1
	if n <= 0 {
		return Catalog{}, report
	}

	cat := make(Catalog, n)
	for i := 0; i < n; i++ {
		start := i * DescriptorSize
		end := start + DescriptorSize
		if end > len(table) {
			report.Truncated = true
			report.Malformed += n - i
			slog.Warn("vars: descriptor table truncated",
				"want_records", n,
				"read_records", i,
				"table_bytes", len(table),
			)
			break
		}

		d, err := ParseDescriptor(table[start:end])
		report.Records++
		if err != nil {
			report.Malformed++
			slog.Warn("vars: malformed descriptor", "index", i, "error", err)
		}
		cat[d.Name] = d
	}
	return cat, report
}

// Names returns the catalog's variable names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the descriptor for name.
func (c Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c[name]
	return d, ok
}

// FrameSize returns the smallest frame length that holds every variable.
func (c Catalog) FrameSize() int {
	size := 0
	for _, d := range c {
		if end := d.Offset + d.Size(); end > size {
			size = end
		}
	}
	return size
}
