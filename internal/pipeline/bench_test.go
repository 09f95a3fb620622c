package pipeline_test

import (
	"bytes"
	"testing"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/pipeline"
	"github.com/derickschaefer/liftlog/internal/seed"
)

// benchRows is a year of seeded history, fixed so runs are comparable.
func benchRows(b *testing.B) []model.LogRow {
	b.Helper()
	return seed.Generate(seed.Options{Days: 365, End: calendar.MustParse("2024-12-31"), Seed: 42})
}

// export → import: the hot path for backups and user-to-user copies.

func BenchmarkWriteRows(b *testing.B) {
	rows := benchRows(b)
	var buf bytes.Buffer
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := pipeline.WriteRows(&buf, rows); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(int64(buf.Len()))
}

func BenchmarkReadRows(b *testing.B) {
	var buf bytes.Buffer
	if err := pipeline.WriteRows(&buf, benchRows(b)); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pipeline.ReadRows(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
