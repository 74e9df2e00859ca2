package compiled

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloomNoFalseNegatives(t *testing.T) {
	b := NewBloom(100, 0.01)
	members := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		m := fmt.Sprintf("host-%d.example.com", i)
		members = append(members, m)
		b.Add(m)
	}
	for _, m := range members {
		assert.True(t, b.MightContain(m))
	}
}

func TestBloomFalsePositiveRateBounded(t *testing.T) {
	const n = 1000
	b := NewBloom(n, 0.01)
	for i := 0; i < n; i++ {
		b.Add(fmt.Sprintf("member-%d", i))
	}
	falsePositives := 0
	trials := 5000
	for i := 0; i < trials; i++ {
		if b.MightContain(fmt.Sprintf("absent-%d", i)) {
			falsePositives++
		}
	}
	rate := float64(falsePositives) / float64(trials)
	assert.Less(t, rate, 0.05, "false positive rate should stay within a small multiple of the configured 1%% target")
}
