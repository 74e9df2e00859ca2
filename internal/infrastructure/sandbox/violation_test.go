package sandbox

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestViolationRingWrapsAtCapacity(t *testing.T) {
	r := newViolationRing(3)
	for i := 0; i < 5; i++ {
		r.record(Violation{Time: time.Now(), Kind: "storage", Detail: fmt.Sprintf("v%d", i)})
	}
	all := r.All()
	assert.Len(t, all, 3)
	assert.Equal(t, "v2", all[0].Detail)
	assert.Equal(t, "v4", all[2].Detail)
}

func TestViolationRingBelowCapacity(t *testing.T) {
	r := newViolationRing(5)
	r.record(Violation{Detail: "a"})
	r.record(Violation{Detail: "b"})
	all := r.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Detail)
}
