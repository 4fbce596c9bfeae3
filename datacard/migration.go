package datacard

import "github.com/c360studio/hggcard/analysis"

// Migration moves events from the From categories into the To categories.
type Migration struct {
	From analysis.Cats
	To   analysis.Cats
}

// Migrations lists the dijet migrations in table order. For dijet categories
// d1..dn (tightest first) the first migration takes all of them into the
// inclusive categories, the next takes d1..dn-1 into dn, and so on down to d1
// into d2.
func Migrations(inclusive, dijet analysis.Cats) []Migration {
	n := len(dijet)
	out := make([]Migration, 0, n)
	for i := 0; i < n; i++ {
		from := append(analysis.Cats(nil), dijet[:n-i]...)
		to := analysis.Cats{}
		if i == 0 {
			to = append(to, inclusive...)
		} else {
			to = append(to, dijet[n-i])
		}
		out = append(out, Migration{From: from, To: to})
	}
	return out
}

// MigratedRatio is the yield ratio of the receiving categories when a
// fraction u of the from yield migrates into them. An empty receiving set is
// left unchanged.
func MigratedRatio(to, from, u float64) float64 {
	if to == 0 {
		return 1
	}
	return (to - u*from) / to
}
