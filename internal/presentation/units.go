package presentation

import (
	"fmt"
	"strconv"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
)

func formatWei(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// etherOf renders a decimal wei string as ether, or returns it unchanged if
// it does not parse.
func etherOf(wei string) string {
	v, err := strconv.ParseUint(wei, 10, 64)
	if err != nil {
		return wei
	}
	return chain.FormatEther(v)
}

// fractionOf renders a basis-point fraction of FrictionBase as a percentage.
func fractionOf(bp uint64) string {
	return fmt.Sprintf("%d.%02d%%", bp*100/collection.FrictionBase, bp*100%collection.FrictionBase/100)
}

func shortHex(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
