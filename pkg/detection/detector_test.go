package detection

import (
	"context"
	"image"
	"testing"
)

func TestBBox_Center(t *testing.T) {
	tests := []struct {
		name    string
		box     BBox
		expectX float64
		expectY float64
	}{
		{
			name:    "origin box",
			box:     BBox{X: 0, Y: 0, W: 200, H: 200},
			expectX: 100,
			expectY: 100,
		},
		{
			name:    "traffic light box",
			box:     BBox{X: 100, Y: 50, W: 40, H: 90},
			expectX: 120,
			expectY: 95,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := tc.box.Center()
			if x != tc.expectX {
				t.Errorf("Center X: got %.2f, want %.2f", x, tc.expectX)
			}
			if y != tc.expectY {
				t.Errorf("Center Y: got %.2f, want %.2f", y, tc.expectY)
			}
		})
	}
}

func TestBBox_Area(t *testing.T) {
	tests := []struct {
		name   string
		box    BBox
		expect float64
	}{
		{"regular", BBox{W: 10, H: 20}, 200},
		{"zero width", BBox{W: 0, H: 20}, 0},
		{"negative height", BBox{W: 10, H: -5}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.box.Area(); got != tc.expect {
				t.Errorf("Area: got %.2f, want %.2f", got, tc.expect)
			}
		})
	}
}

func TestBBox_Rect(t *testing.T) {
	box := BBox{X: 10.4, Y: 5.6, W: 20.2, H: 9.9}
	got := box.Rect()
	want := image.Rect(10, 5, 31, 16)
	if got != want {
		t.Errorf("Rect: got %v, want %v", got, want)
	}
}

func TestClassName(t *testing.T) {
	if got := ClassName(0); got != "person" {
		t.Errorf("ClassName(0) = %q, want person", got)
	}
	if got := ClassName(9); got != "traffic light" {
		t.Errorf("ClassName(9) = %q, want traffic light", got)
	}
	if got := ClassName(-1); got != "" {
		t.Errorf("ClassName(-1) = %q, want empty", got)
	}
	if got := ClassName(len(COCOClasses)); got != "" {
		t.Errorf("ClassName(out of range) = %q, want empty", got)
	}
}

func TestClassHelpers(t *testing.T) {
	if !IsPerson("person") || IsPerson("Person") {
		t.Error("IsPerson should be an exact, case-sensitive match")
	}
	for _, animal := range []string{"cat", "dog", "horse", "sheep", "cow"} {
		if !IsAnimal(animal) {
			t.Errorf("IsAnimal(%q) = false", animal)
		}
	}
	if IsAnimal("car") {
		t.Error("IsAnimal(car) = true")
	}
}

func TestFilterLabel(t *testing.T) {
	dets := []Detection{
		{Label: "person", Score: 0.9},
		{Label: "car", Score: 0.8},
		{Label: "person", Score: 0.6},
	}
	got := FilterLabel(dets, "person")
	if len(got) != 2 {
		t.Fatalf("FilterLabel: got %d, want 2", len(got))
	}
	if got[1].Score != 0.6 {
		t.Errorf("FilterLabel should keep order, got %+v", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ModelPath == "" {
		t.Error("DefaultConfig: ModelPath should not be empty")
	}
	if cfg.ConfidenceThresh <= 0 || cfg.ConfidenceThresh > 0.5 {
		t.Errorf("DefaultConfig: ConfidenceThresh should be in (0, 0.5], got %f", cfg.ConfidenceThresh)
	}
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 {
		t.Errorf("DefaultConfig: input size should be positive, got %dx%d", cfg.InputWidth, cfg.InputHeight)
	}
}

func TestMock_Script(t *testing.T) {
	first := []Detection{{Label: "person", Score: 0.9}}
	second := []Detection{{Label: "cat", Score: 0.7}}
	m := NewMock(first, second)
	ctx := context.Background()

	got, _ := m.Detect(ctx, nil)
	if got[0].Label != "person" {
		t.Errorf("call 1: got %q", got[0].Label)
	}
	got, _ = m.Detect(ctx, nil)
	if got[0].Label != "cat" {
		t.Errorf("call 2: got %q", got[0].Label)
	}
	got, _ = m.Detect(ctx, nil)
	if got[0].Label != "cat" {
		t.Errorf("call 3 should repeat the last frame, got %q", got[0].Label)
	}
	if m.Calls() != 3 {
		t.Errorf("Calls: got %d, want 3", m.Calls())
	}
}
