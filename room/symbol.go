// room/symbol.go
package room

import (
	"encoding/json"
	"fmt"
)

// Symbol 六个下注符号之一（葫芦、螃蟹、虾、鱼、鹿、鸡）
type Symbol uint8

const (
	Bau Symbol = iota // gourd
	Cua               // crab
	Tom               // prawn
	Ca                // fish
	Nai               // stag
	Ga                // rooster
)

// NumSymbols is the size of the closed symbol set.
const NumSymbols = 6

// DiceCount is the number of dice drawn per round.
const DiceCount = 3

var symbolNames = [NumSymbols]string{"bau", "cua", "tom", "ca", "nai", "ga"}

func (s Symbol) String() string {
	if int(s) >= NumSymbols {
		return fmt.Sprintf("symbol(%d)", uint8(s))
	}
	return symbolNames[s]
}

// ParseSymbol maps a wire name back to a Symbol.
func ParseSymbol(name string) (Symbol, bool) {
	for i, n := range symbolNames {
		if n == name {
			return Symbol(i), true
		}
	}
	return 0, false
}

// MarshalJSON encodes the symbol as its wire name.
func (s Symbol) MarshalJSON() ([]byte, error) {
	if int(s) >= NumSymbols {
		return nil, fmt.Errorf("invalid symbol ordinal %d", uint8(s))
	}
	return json.Marshal(symbolNames[s])
}

func (s *Symbol) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sym, ok := ParseSymbol(name)
	if !ok {
		return fmt.Errorf("unknown symbol %q", name)
	}
	*s = sym
	return nil
}

// Stakes 每个符号一格的注额，下标即符号序号。固定大小的数组保证
// “所有符号都有默认为零的注额”这一不变量由构造本身成立。
type Stakes [NumSymbols]int64

// Total returns the sum staked across all symbols.
func (st *Stakes) Total() int64 {
	var sum int64
	for _, v := range st {
		sum += v
	}
	return sum
}

// IsZero reports whether nothing is staked.
func (st *Stakes) IsZero() bool {
	return st.Total() == 0
}

// MarshalJSON encodes stakes as the {"bau":0,...} object clients expect.
func (st Stakes) MarshalJSON() ([]byte, error) {
	m := make(map[string]int64, NumSymbols)
	for i, v := range st {
		m[symbolNames[i]] = v
	}
	return json.Marshal(m)
}

func (st *Stakes) UnmarshalJSON(data []byte) error {
	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Stakes
	for name, v := range m {
		sym, ok := ParseSymbol(name)
		if !ok {
			return fmt.Errorf("unknown symbol %q", name)
		}
		out[sym] = v
	}
	*st = out
	return nil
}
