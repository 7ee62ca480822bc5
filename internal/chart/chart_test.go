package chart

import (
	"testing"
	"time"

	"assetanalysis/internal/engine"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestUnionDatesMergesSortedAxes(t *testing.T) {
	traces := []engine.Trace{
		{Dates: []time.Time{day(1), day(2), day(4)}},
		{Dates: []time.Time{day(2), day(3)}},
	}
	got := unionDates(traces)
	want := []time.Time{day(1), day(2), day(3), day(4)}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRenderProducesPNG(t *testing.T) {
	tr := engine.Trace{Name: "X"}
	for i := 1; i <= 10; i++ {
		tr.Dates = append(tr.Dates, day(i))
		tr.Values = append(tr.Values, float64(100+i))
	}
	png, err := render("test", []engine.Trace{tr}, false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty image")
	}
}

func TestRenderRejectsEmpty(t *testing.T) {
	if _, err := render("empty", nil, false); err == nil {
		t.Fatal("want error for no traces")
	}
	if _, err := render("one", []engine.Trace{{Name: "X", Dates: []time.Time{day(1)}, Values: []float64{1}}}, false); err == nil {
		t.Fatal("want error for a single point")
	}
}
