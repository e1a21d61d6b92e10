package patterns

import "testing"

func TestDetectDoubleBottom(t *testing.T) {
	// Two troughs at value 6 (indices 4 and 16) with a rally to 12 between.
	prices := []float64{10, 9, 8, 7, 6, 7, 8, 9, 10, 11, 12, 11, 10, 9, 8, 7, 6, 7, 8, 9, 10}

	found, idx := DetectDoubleBottom(prices)
	if !found {
		t.Fatal("Expected double bottom to be detected")
	}
	if idx != 16 {
		t.Errorf("Expected confirming index 16 (second trough), got %d", idx)
	}
}

func TestDetectDoubleBottomRequiresRetracement(t *testing.T) {
	// Two equal troughs but the bounce between them stays under 3%.
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 100
	}
	prices[5] = 99
	prices[10] = 100.5
	prices[18] = 99

	if found, _ := DetectDoubleBottom(prices); found {
		t.Error("Double bottom without a 3% retracement should not be detected")
	}
}

func TestDetectDoubleTop(t *testing.T) {
	// Mirror image of the double bottom scenario: peaks at 14, trough at 8.
	prices := []float64{10, 11, 12, 13, 14, 13, 12, 11, 10, 9, 8, 9, 10, 11, 12, 13, 14, 13, 12, 11, 10}

	found, idx := DetectDoubleTop(prices)
	if !found {
		t.Fatal("Expected double top to be detected")
	}
	if idx != 16 {
		t.Errorf("Expected confirming index 16 (second peak), got %d", idx)
	}
}

func TestDetectInsufficientData(t *testing.T) {
	short := []float64{10, 9, 8, 7, 6, 7, 8, 9, 10, 11, 12, 11, 10, 9, 8}

	if found, idx := DetectDoubleBottom(short); found || idx != -1 {
		t.Errorf("Double bottom on %d points should be false,-1: got %v,%d", len(short), found, idx)
	}
	if found, idx := DetectDoubleTop(short); found || idx != -1 {
		t.Errorf("Double top on %d points should be false,-1: got %v,%d", len(short), found, idx)
	}
	if found, idx := DetectHeadShoulders(make([]float64, 29)); found || idx != -1 {
		t.Errorf("H&S on 29 points should be false,-1: got %v,%d", found, idx)
	}
	if found, idx := DetectInverseHeadShoulders(make([]float64, 29)); found || idx != -1 {
		t.Errorf("Inverse H&S on 29 points should be false,-1: got %v,%d", found, idx)
	}
}

func headShouldersSeries() []float64 {
	// Left shoulder ~105, head 110 at index 20, right shoulder ~105.
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100
	}
	prices[10] = 105
	prices[11] = 106
	prices[12] = 105
	prices[19] = 108
	prices[20] = 110
	prices[21] = 108
	prices[28] = 105
	prices[29] = 106
	prices[30] = 105
	return prices
}

func TestDetectHeadShoulders(t *testing.T) {
	found, idx := DetectHeadShoulders(headShouldersSeries())
	if !found {
		t.Fatal("Expected head and shoulders to be detected")
	}
	if idx <= 20 {
		t.Errorf("Confirming index should be on the right shoulder side, got %d", idx)
	}
}

func TestDetectInverseHeadShoulders(t *testing.T) {
	// Flip the H&S series around the 100 baseline.
	prices := headShouldersSeries()
	for i, p := range prices {
		prices[i] = 200 - p
	}

	found, idx := DetectInverseHeadShoulders(prices)
	if !found {
		t.Fatal("Expected inverse head and shoulders to be detected")
	}
	if idx <= 20 {
		t.Errorf("Confirming index should be on the right shoulder side, got %d", idx)
	}
}

func TestDetectHeadShouldersRejectsUnevenShoulders(t *testing.T) {
	prices := headShouldersSeries()
	// Drop the right shoulder below 95% of the head.
	prices[28] = 100
	prices[29] = 100
	prices[30] = 100

	if found, _ := DetectHeadShoulders(prices); found {
		t.Error("H&S with a collapsed right shoulder should not be detected")
	}
}

func BenchmarkDetectDoubleBottom(b *testing.B) {
	prices := make([]float64, 500)
	for i := range prices {
		prices[i] = 100 + float64(i%17) - float64(i%11)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DetectDoubleBottom(prices)
	}
}
