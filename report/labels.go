package report

import (
	"fmt"
	"strconv"

	"github.com/rustyeddy/dealbook/ledger"
)

// Labeler names aggregation keys using the stored descriptions and groups.
type Labeler struct {
	Descriptions map[int64]string
	Groups       ledger.Groups
	// DescriptionFirst renders "desc - magic" instead of "magic - desc".
	DescriptionFirst bool
}

func (l Labeler) Magic(m int64) string {
	desc, ok := l.Descriptions[m]
	if !ok || desc == "" {
		return strconv.FormatInt(m, 10)
	}
	if l.DescriptionFirst {
		return fmt.Sprintf("%s - %d", desc, m)
	}
	return fmt.Sprintf("%d - %s", m, desc)
}

func (l Labeler) Key(k ledger.Key) string {
	if k.Kind == ledger.KindGroup {
		if g, ok := l.Groups[k.ID]; ok && g.Name != "" {
			return g.Name
		}
		return fmt.Sprintf("group %d", k.ID)
	}
	return l.Magic(k.ID)
}
