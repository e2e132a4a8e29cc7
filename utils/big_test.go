package utils

import (
	"math"
	"math/big"
	"testing"
)

func TestBigMin_WithoutArgumentsReturnsNil(t *testing.T) {
	if BigMin() != nil {
		t.Error("BigMin() did not return nil")
	}
}

func TestBigMin_ReturnsTheMinimum(t *testing.T) {
	tests := [][]int{
		{0},
		{0, 1},
		{1, 0},
		{1, 1},
		{1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1},
	}

	for _, test := range tests {
		min := math.MaxInt
		args := make([]*big.Int, len(test))
		for i, v := range test {
			args[i] = big.NewInt(int64(v))
			if v < min {
				min = v
			}
		}
		got := int(BigMin(args...).Int64())
		if got != min {
			t.Errorf("BigMin(%v) = %d; want %d", test, got, min)
		}
	}
}

func TestBigMax_ReturnsTheMaximum(t *testing.T) {
	tests := [][]int{
		{0},
		{0, 1},
		{1, 0},
		{1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1},
	}

	for _, test := range tests {
		max := -1
		args := make([]*big.Int, len(test))
		for i, v := range test {
			args[i] = big.NewInt(int64(v))
			if v > max {
				max = v
			}
		}
		got := int(BigMax(args...).Int64())
		if got != max {
			t.Errorf("BigMax(%v) = %d; want %d", test, got, max)
		}
	}
}

func TestToTSA(t *testing.T) {
	want := new(big.Int).Mul(big.NewInt(3), big.NewInt(TSA))
	if ToTSA(3).Cmp(want) != 0 {
		t.Errorf("ToTSA(3) = %v; want %v", ToTSA(3), want)
	}
}

func TestToGWEI(t *testing.T) {
	want := new(big.Int).Mul(big.NewInt(7), big.NewInt(GWEI))
	if ToGWEI(7).Cmp(want) != 0 {
		t.Errorf("ToGWEI(7) = %v; want %v", ToGWEI(7), want)
	}
}
