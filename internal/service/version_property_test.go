package service

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// presentVersions 由掩码得到 1..n 中存在的版本号，升序
func presentVersions(mask []bool) []int64 {
	out := make([]int64, 0, len(mask))
	for i, keep := range mask {
		if keep {
			out = append(out, int64(i+1))
		}
	}
	return out
}

func TestProperty_MissingVersionsIsComplement(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("present and missing partition 1..max", prop.ForAll(
		func(mask []bool) bool {
			versions := presentVersions(mask)
			missing := missingVersions(versions)

			var max int64
			if len(versions) > 0 {
				max = versions[len(versions)-1]
			}
			if int64(len(versions)+len(missing)) != max {
				return false
			}

			all := append(append([]int64{}, versions...), missing...)
			sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
			for i, v := range all {
				if v != int64(i+1) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("contiguous history has nothing missing", prop.ForAll(
		func(n int) bool {
			versions := make([]int64, n)
			for i := range versions {
				versions[i] = int64(i + 1)
			}
			return len(missingVersions(versions)) == 0
		},
		gen.IntRange(0, 500),
	))

	properties.TestingRun(t)
}
