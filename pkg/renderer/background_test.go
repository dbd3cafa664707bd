package renderer

import (
	"math/rand"
	"testing"

	"github.com/df07/scenegraph-raytracer/pkg/core"
)

func TestBackground_Gradient(t *testing.T) {
	tests := []struct {
		y, height  int
		heightRate float64
	}{
		{0, 2, 0},
		{1, 2, 0.3},
		{0, 10, 0},
		{2, 10, 0},
		{5, 10, 0.3},
		{9, 10, 0.7},
	}

	for _, tt := range tests {
		got, star := Background(tt.y, tt.height, nil)
		if star {
			t.Errorf("y=%d: stars must be disabled without a random source", tt.y)
		}
		want := core.NewVec3(67.0/255*tt.heightRate, 133.0/255*tt.heightRate, tt.heightRate)
		assertVec(t, "gradient", got, want)
	}
}

func TestBackground_GradientIsExactPerRow(t *testing.T) {
	// Rows are reproducible bit for bit from the formula
	for y := 0; y < 50; y++ {
		a, _ := Background(y, 50, nil)
		b, _ := Background(y, 50, nil)
		if a != b {
			t.Fatalf("Row %d not reproducible: %v vs %v", y, a, b)
		}
		hr := max(0, float64(y)/50-0.2)
		if want := skyColor.Multiply(hr); a != want {
			t.Errorf("Row %d: expected %v, got %v", y, want, a)
		}
	}
}

func TestBackground_Stars(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	stars := 0
	const draws = 200000

	for i := 0; i < draws; i++ {
		// Height rate 0 sits in the flat 0.5% band
		color, star := Background(0, 10, random)
		if !star {
			continue
		}
		stars++
		if color.X != color.Y || color.Y != color.Z {
			t.Fatalf("Stars must be gray, got %v", color)
		}
		if color.X < 55.0/255 || color.X > 254.0/255 {
			t.Fatalf("Star brightness %f outside [55, 254]/255", color.X)
		}
	}

	rate := float64(stars) / draws
	if rate < 0.004 || rate > 0.006 {
		t.Errorf("Expected a star rate near 0.005, got %f", rate)
	}
}

func TestBackground_NoStarsAboveBand(t *testing.T) {
	random := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		// Height rate 0.7 is above the star band
		if _, star := Background(9, 10, random); star {
			t.Fatal("Unexpected star above the band")
		}
	}
}

func TestBackground_SeededStarsAreDeterministic(t *testing.T) {
	a := rand.New(rand.NewSource(99))
	b := rand.New(rand.NewSource(99))
	for y := 0; y < 1000; y++ {
		ca, sa := Background(y%10, 10, a)
		cb, sb := Background(y%10, 10, b)
		if ca != cb || sa != sb {
			t.Fatalf("Draw %d differs between equally seeded generators", y)
		}
	}
}
