package change

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/checkoutpos/billing-api/pkg/money"
)

// Standard is the denomination set used when a drawer supplies none,
// face values in major currency units.
var Standard = []int64{2000, 500, 200, 100, 50, 20, 10, 5, 2, 1}

// Ledger maps a denomination face value (major units) to the number of
// notes/coins available in the drawer for one transaction.
type Ledger map[int64]int

// Allocation maps a denomination face value to the number of notes/coins
// handed back as change.
type Allocation map[int64]int

// Total returns the monetary value of the allocation.
func (a Allocation) Total() money.Money {
	var minor int64
	for d, n := range a {
		minor += d * money.MinorPerUnit * int64(n)
	}
	return money.FromMinor(minor)
}

// Allocate splits owed across the ledger's denominations, largest face
// value first, never taking more of a denomination than the ledger holds.
// Every denomination the ledger declares appears in the result, zero
// included, so callers can always render a full table. The caller's
// ledger is never mutated.
//
// The returned remainder is the portion of owed the drawer cannot
// represent. The greedy pass is deterministic and linear but not
// note-count optimal under limited supply; that trade-off is deliberate.
// Exactness holds regardless: allocation total + remainder == owed.
func Allocate(owed money.Money, ledger Ledger) (Allocation, money.Money) {
	remaining := owed.Minor()

	denoms := make([]int64, 0, len(ledger))
	for d := range ledger {
		denoms = append(denoms, d)
	}
	sort.Slice(denoms, func(i, j int) bool { return denoms[i] > denoms[j] })

	alloc := make(Allocation, len(denoms))
	for _, d := range denoms {
		alloc[d] = 0
		if remaining <= 0 {
			continue
		}
		unit := d * money.MinorPerUnit
		desired := remaining / unit
		take := desired
		if avail := int64(ledger[d]); take > avail {
			take = avail
		}
		alloc[d] = int(take)
		remaining -= take * unit
	}

	return alloc, money.FromMinor(remaining)
}

// Encode serializes an allocation as the flat denomination->count JSON
// blob persisted on a bill.
func Encode(a Allocation) (string, error) {
	out := make(map[string]int, len(a))
	for d, n := range a {
		out[strconv.FormatInt(d, 10)] = n
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a persisted breakdown blob. An empty or malformed blob
// degrades to a zero table over the standard denomination set rather
// than failing: a bill stays renderable even if the blob was corrupted.
func Decode(blob string) Allocation {
	if blob != "" {
		var in map[string]int
		if err := json.Unmarshal([]byte(blob), &in); err == nil {
			alloc := make(Allocation, len(in))
			valid := true
			for k, n := range in {
				d, err := strconv.ParseInt(k, 10, 64)
				if err != nil || d <= 0 || n < 0 {
					valid = false
					break
				}
				alloc[d] = n
			}
			if valid {
				return alloc
			}
		}
	}

	zero := make(Allocation, len(Standard))
	for _, d := range Standard {
		zero[d] = 0
	}
	return zero
}
