package csvsource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeRecording(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayRecording(t *testing.T) {
	path := writeRecording(t, `timestamp,ch1,ch2
2026-01-01T00:00:00Z,1.5,-2.5
2026-01-01T00:00:00.00390625Z,3.0,4.0
`)

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	ctx := context.Background()
	first, err := src.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Channels() != 2 || first.Values[0] != 1.5 || first.Values[1] != -2.5 {
		t.Errorf("first sample = %+v", first)
	}

	second, err := src.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Timestamp.After(first.Timestamp) {
		t.Error("timestamps not increasing")
	}

	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("err = %v, want io.EOF at end of recording", err)
	}
}

func TestSkipsUnparseableRows(t *testing.T) {
	path := writeRecording(t, `# comment
2026-01-01T00:00:00Z,1.0
not-a-time,9.9
2026-01-01T00:00:01Z,2.0
`)

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	ctx := context.Background()
	var values []float64
	for {
		s, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		values = append(values, s.Values[0])
	}
	if len(values) != 2 || values[0] != 1.0 || values[1] != 2.0 {
		t.Errorf("values = %v, want the two parseable rows", values)
	}
}
