package pagerange

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		total    int
		want     []int
		warnings int
	}{
		{"empty selects all", "", 4, []int{0, 1, 2, 3}, 0},
		{"blank selects all", "   ", 2, []int{0, 1}, 0},
		{"single", "3", 10, []int{2}, 0},
		{"last page", "-1", 10, []int{9}, 0},
		{"negative single", "-3", 10, []int{7}, 0},
		{"range", "2-4", 10, []int{1, 2, 3}, 0},
		{"reversed range", "5-2", 10, []int{1, 2, 3, 4}, 0},
		{"range to last", "8--1", 10, []int{7, 8, 9}, 0},
		{"mixed invalid", "2,abc,4-6", 6, []int{1, 3, 4, 5}, 1},
		{"colliding hyphens", "-3--1", 10, []int{}, 1},
		{"dedup and sort", "5,1-3,2,5", 10, []int{0, 1, 2, 4}, 0},
		{"spaces", " 1 , 3 - 4 ", 10, []int{0, 2, 3}, 0},
		{"blank parts", "1,,2,", 10, []int{0, 1}, 0},
		{"zero discarded", "0", 10, []int{}, 0},
		{"range touching zero discarded", "0-3", 10, []int{}, 0},
		{"negative beyond start discarded", "-11", 10, []int{}, 0},
		{"out of range", "11", 10, []int{}, 0},
		{"range clipped", "8-20", 10, []int{7, 8, 9}, 0},
		{"triple range", "1-2-3", 10, []int{}, 1},
		{"zero pages", "1-5", 0, []int{}, 0},
		{"zero pages empty spec", "", 0, []int{}, 0},
		{"huge range", "1-9223372036854775807", 3, []int{0, 1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := Parse(tt.spec, tt.total)
			assert.Equal(t, tt.want, got)
			assert.Len(t, warnings, tt.warnings)
		})
	}
}

func TestParseWarningCarriesPart(t *testing.T) {
	_, warnings := Parse("1,abc", 3)
	require.Len(t, warnings, 1)
	assert.Equal(t, "abc", warnings[0].Part)
	assert.Contains(t, warnings[0].Error(), "abc")
}

func TestParseOutputIsAscendingAndInRange(t *testing.T) {
	alphabet := []byte("0123456789-, a")
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := rnd.Intn(12)
		b := make([]byte, n)
		for j := range b {
			b[j] = alphabet[rnd.Intn(len(alphabet))]
		}
		spec := string(b)
		total := rnd.Intn(15)

		got, _ := Parse(spec, total)
		for k, p := range got {
			require.GreaterOrEqual(t, p, 0, "spec %q", spec)
			require.Less(t, p, total, "spec %q", spec)
			if k > 0 {
				require.Greater(t, p, got[k-1], "spec %q", spec)
			}
		}

		again, _ := Parse(spec, total)
		require.Equal(t, got, again, "spec %q", spec)
	}
}
