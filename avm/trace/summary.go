package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// OpcodeCount is the number of times one opcode ran.
type OpcodeCount struct {
	Opcode string `json:"opcode"`
	Count  int    `json:"count"`
}

// Summary aggregates a JSONL trace.
type Summary struct {
	Steps     int            `json:"steps"`
	MaxDepth  int            `json:"maxDepth"`
	Reads     int            `json:"reads"`
	Writes    int            `json:"writes"`
	Indirect  int            `json:"indirect"`
	Errors    map[string]int `json:"errors,omitempty"`
	ByOpcode  []OpcodeCount  `json:"byOpcode"`
	Reverted  int            `json:"reverted"`
	Contracts []string       `json:"contracts"`
}

// Summarize reads JSONL steps from r until EOF.
func Summarize(r io.Reader) (*Summary, error) {
	sum := &Summary{Errors: map[string]int{}}
	counts := map[string]int{}
	seen := map[string]bool{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; sc.Scan(); line++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var s Step
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		sum.Steps++
		sum.Reads += s.Reads
		sum.Writes += s.Writes
		sum.Indirect += s.Indirect
		if s.Depth > sum.MaxDepth {
			sum.MaxDepth = s.Depth
		}
		if s.Reverted {
			sum.Reverted++
		}
		if s.ErrorCode != "" {
			sum.Errors[s.ErrorCode]++
		}
		counts[s.OpcodeStr]++
		if !seen[s.Address] {
			seen[s.Address] = true
			sum.Contracts = append(sum.Contracts, s.Address)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for op, n := range counts {
		sum.ByOpcode = append(sum.ByOpcode, OpcodeCount{Opcode: op, Count: n})
	}
	sort.Slice(sum.ByOpcode, func(i, j int) bool {
		if sum.ByOpcode[i].Count != sum.ByOpcode[j].Count {
			return sum.ByOpcode[i].Count > sum.ByOpcode[j].Count
		}
		return sum.ByOpcode[i].Opcode < sum.ByOpcode[j].Opcode
	})
	return sum, nil
}
