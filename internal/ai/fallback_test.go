package ai

import (
	"math"
	"testing"
)

func TestFallbackEmbeddingDeterministic(t *testing.T) {
	a := FallbackEmbedding("Reuters reports inflation eased in March.", 768)
	b := FallbackEmbedding("Reuters reports inflation eased in March.", 768)

	if len(a) != 768 {
		t.Fatalf("dimension = %d, want 768", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFallbackEmbeddingNormalized(t *testing.T) {
	vec := FallbackEmbedding("some news text", 64)
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("norm^2 = %v, want 1.0", norm)
	}
}

func TestFallbackEmbeddingDistinguishesTexts(t *testing.T) {
	a := FallbackEmbedding("inflation eased in March", 128)
	b := FallbackEmbedding("quarterly earnings beat expectations", 128)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestFallbackEmbeddingEmptyText(t *testing.T) {
	vec := FallbackEmbedding("", 32)
	if len(vec) != 32 {
		t.Fatalf("dimension = %d, want 32", len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("empty text should yield zero vector, got %v at %d", v, i)
		}
	}
}
