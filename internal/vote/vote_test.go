package vote

import "testing"

func TestMajority(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{10, 5},
		{11, 6},
	}
	for _, c := range cases {
		if got := Majority(c.n); got != c.want {
			t.Fatalf("Majority(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
