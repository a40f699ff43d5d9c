package main

import (
	"fmt"
	"io"

	"ragscholar/internal/domain"
	"ragscholar/internal/service"
)

func printReport(w io.Writer, sess *service.Session, r service.IngestReport) {
	for _, d := range r.Documents {
		fmt.Fprintf(w, "- %s: %d characters, %d after cleaning, %d chunks\n", d.Name, d.RawChars, d.CleanChars, d.Chunks)
	}
	for _, name := range r.Skipped {
		fmt.Fprintf(w, "- %s: no text, skipped\n", name)
	}
	fmt.Fprintf(w, "Indexed %d chunks (dimension %d) with %s, chunk size %d.\n", r.TotalChunks, r.Dimension, sess.ModelName, sess.ChunkSize)
	if r.Summary != "" {
		fmt.Fprintf(w, "\nOverview: %s\n", r.Summary)
	}
}

func printResults(w io.Writer, results []domain.RetrievedResult) {
	for i, r := range results {
		fmt.Fprintf(w, "%d. %s  distance=%.4f\n%s\n\n", i+1, r.Chunk.Source, r.Distance, r.Chunk.Text)
	}
}
