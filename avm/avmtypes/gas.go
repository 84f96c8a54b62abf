package avmtypes

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
)

// Gas is an amount in both fee dimensions. Values are immutable; every
// operation returns a new Gas.
type Gas struct {
	L2 uint64 `json:"l2Gas"`
	DA uint64 `json:"daGas"`
}

func NewGas(l2, da uint64) Gas {
	return Gas{L2: l2, DA: da}
}

func (g Gas) Add(o Gas) Gas {
	return Gas{L2: g.L2 + o.L2, DA: g.DA + o.DA}
}

// Sub assumes g covers o; callers check with Covers first.
func (g Gas) Sub(o Gas) Gas {
	return Gas{L2: g.L2 - o.L2, DA: g.DA - o.DA}
}

func (g Gas) Mul(n uint64) Gas {
	return Gas{L2: g.L2 * n, DA: g.DA * n}
}

// Min is taken per dimension.
func (g Gas) Min(o Gas) Gas {
	return Gas{L2: min(g.L2, o.L2), DA: min(g.DA, o.DA)}
}

func (g Gas) Covers(cost Gas) bool {
	return g.L2 >= cost.L2 && g.DA >= cost.DA
}

func (g Gas) IsEmpty() bool {
	return g.L2 == 0 && g.DA == 0
}

// Consume returns g - cost, or ErrOutOfGas if either dimension would go negative.
func (g Gas) Consume(cost Gas) (Gas, error) {
	if !g.Covers(cost) {
		return g, fmt.Errorf("%w: need %s, have %s", avmerrors.ErrOutOfGas, cost, g)
	}
	return g.Sub(cost), nil
}

func (g Gas) String() string {
	return fmt.Sprintf("{l2=%d da=%d}", g.L2, g.DA)
}
