package presentation

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MetadataLines lists the mutable settings of a collection one per line, in a
// fixed order so two snapshots can be diffed.
func MetadataLines(c CollectionDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "whitelist_only: %t\n", c.WhitelistOnly)
	fmt.Fprintf(&b, "hidden: %t\n", c.Hidden)
	fmt.Fprintf(&b, "royalty_fraction: %d\n", c.RoyaltyFraction)
	fmt.Fprintf(&b, "minting_begins_from: %d\n", c.MintingBeginsFrom)
	fmt.Fprintf(&b, "minting_cost: %s\n", c.MintingCost)
	fmt.Fprintf(&b, "description: %s\n", c.Description)
	return b.String()
}

// DiffMetadata returns the changed setting lines between two snapshots of a
// collection, prefixed with "-" and "+". Empty if nothing changed.
func DiffMetadata(before, after CollectionDTO) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(MetadataLines(before), MetadataLines(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}
