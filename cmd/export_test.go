package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/pipeline"
)

func fallbackDoc() exportDoc {
	records, metrics := pipeline.Fallback()
	return exportDoc{
		Snapshot: model.Snapshot{
			RunID:    "run-1",
			Fallback: true,
			Records:  records,
			Metrics:  metrics,
		},
		Error: "fetch failed",
	}
}

func TestWriteExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeExport(&buf, "json", fallbackDoc()); err != nil {
		t.Fatalf("writeExport: %v", err)
	}

	var got struct {
		RunID    string `json:"runId"`
		Fallback bool   `json:"fallback"`
		Error    string `json:"error"`
		Records  []struct {
			Client string `json:"client"`
			Price  string `json:"price"`
		} `json:"records"`
		Metrics model.BusinessMetrics `json:"metrics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.RunID != "run-1" || !got.Fallback || got.Error != "fetch failed" {
		t.Errorf("header fields = %+v", got)
	}
	if len(got.Records) != 6 || got.Records[0].Client != "Avinash" || got.Records[0].Price != "5000" {
		t.Errorf("records = %+v", got.Records)
	}
	if got.Metrics.TotalRevenue != 123347 {
		t.Errorf("total revenue = %v, want 123347", got.Metrics.TotalRevenue)
	}
}

func TestWriteExportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeExport(&buf, "YAML", fallbackDoc()); err != nil {
		t.Fatalf("writeExport: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if got["run_id"] != "run-1" {
		t.Errorf("run_id = %v", got["run_id"])
	}
	if got["error"] != "fetch failed" {
		t.Errorf("error = %v", got["error"])
	}
	if !strings.Contains(buf.String(), "price: \"5000\"") {
		t.Errorf("price not written as text:\n%s", buf.String())
	}
}

func TestWriteExportUnknownFormat(t *testing.T) {
	if err := writeExport(&bytes.Buffer{}, "xml", fallbackDoc()); err == nil {
		t.Fatal("expected error for xml")
	}
}
