package filter

import (
	"context"
	"fmt"
	"testing"
)

// Benchmark expression compilation
func BenchmarkCompileExpression(b *testing.B) {
	expressions := []struct {
		name string
		expr string
	}{
		{"simple", `abbr == "GCN"`},
		{"complex", `abbr in ["GCN", "PS2"] and status == "Beaten" and contains(title, "mario")`},
	}

	for _, tc := range expressions {
		b.Run(tc.name, func(b *testing.B) {
			compiler := NewCompiler(WithCache(0))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := compiler.Compile(tc.expr); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Benchmark expression compilation with caching
func BenchmarkCompileExpressionWithCache(b *testing.B) {
	compiler := NewCompiler(WithCache(100))
	expression := `abbr == "GCN" and status == "Beaten"`

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := compiler.Compile(expression); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark predicate matching against a single game
func BenchmarkPredicateMatch(b *testing.B) {
	rec := mustRecord(b, `{"abbr": "GCN", "title": "Mario Kart: Double Dash!!", "status": 30}`)
	f, err := NewPredicateFilter(map[string]string{"abbr": "(?i)gcn", "title": "(?i)mario"}, MatchAll)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		f.Match(rec)
	}
}

// Benchmark sequential vs concurrent evaluation
func BenchmarkEvaluation(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	f, err := NewCompiler().Compile(`abbr == "GCN" and status == "Beaten"`)
	if err != nil {
		b.Fatal(err)
	}

	for _, size := range sizes {
		games := generateTestGames(b, size)

		b.Run(fmt.Sprintf("sequential-%d", size), func(b *testing.B) {
			evaluator := NewConcurrentEvaluator(WithWorkers(1))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := evaluator.Evaluate(context.Background(), f, games); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("concurrent-%d", size), func(b *testing.B) {
			evaluator := NewConcurrentEvaluator(WithBatchSize(100))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := evaluator.Evaluate(context.Background(), f, games); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
