package parser

import (
	"bytes"
	"fmt"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/sheet-insights/pkg/money"
)

func generateCSVData(rows int) []byte {
	gen := money.NewTestDataGeneratorWithSeed(42)
	return gen.CSV(gen.Rows(2024, rows))
}

func BenchmarkReadCSV(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		data := generateCSVData(size)

		b.Run(fmt.Sprintf("UTF8_%d_rows", size), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := ReadCSV(data); err != nil {
					b.Fatal(err)
				}
			}
		})

		latin1, err := charmap.ISO8859_1.NewEncoder().Bytes(data)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("Latin1_%d_rows", size), func(b *testing.B) {
			b.SetBytes(int64(len(latin1)))
			for i := 0; i < b.N; i++ {
				if _, err := Decode(bytes.NewReader(latin1), "upload.csv"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
