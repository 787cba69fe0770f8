package tesseract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tGSTIN:\n" +
	"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t80\t29ABCDE1234F1Z5\n" +
	"5\t1\t1\t1\t2\t1\t0\t0\t10\t10\t70\tStatus:\n" +
	"5\t1\t1\t1\t2\t2\t0\t0\t10\t10\t60\tActive\n"

type fakeRunner struct {
	calls    []string
	tsv      map[string]string
	failOn   string
	pdfPages int
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	if name == f.failOn {
		return nil, []byte("boom"), errors.New("exit status 1")
	}
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pdfPages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		for suffix, out := range f.tsv {
			if strings.HasSuffix(args[0], suffix) {
				return []byte(out), nil, nil
			}
		}
		return []byte(sampleTSV), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

func TestParseTSVRebuildsLinesAndMeanConfidence(t *testing.T) {
	res := parseTSV([]byte(sampleTSV))
	if res.text != "GSTIN: 29ABCDE1234F1Z5\nStatus: Active" {
		t.Fatalf("unexpected text: %q", res.text)
	}
	if res.words != 4 || res.meanConfidence() != 75 {
		t.Fatalf("unexpected confidence: words=%d mean=%f", res.words, res.meanConfidence())
	}
	if empty := parseTSV(nil); empty.meanConfidence() != 0 || empty.text != "" {
		t.Fatalf("expected empty result, got %+v", empty)
	}
}

func TestRecognizeImageRunsTesseractTSV(t *testing.T) {
	runner := &fakeRunner{}
	engine := NewWithRunner(Config{TempDir: t.TempDir(), PSM: 6}, runner, nil)

	got, err := engine.RecognizeImage(context.Background(), []byte("image"))
	if err != nil {
		t.Fatalf("RecognizeImage() error = %v", err)
	}
	if got.Confidence != 75 || got.Pages != 1 || !strings.Contains(got.Text, "29ABCDE1234F1Z5") {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(runner.calls) != 1 || !strings.HasSuffix(runner.calls[0], "stdout -l eng --psm 6 tsv") {
		t.Fatalf("unexpected calls: %v", runner.calls)
	}
}

func TestRecognizeImageWrapsFailure(t *testing.T) {
	engine := NewWithRunner(Config{TempDir: t.TempDir()}, &fakeRunner{failOn: "tesseract"}, nil)
	_, err := engine.RecognizeImage(context.Background(), []byte("image"))
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected extraction failed, got %v", err)
	}
}

func TestRecognizePDFOCRsEveryPageInOrder(t *testing.T) {
	runner := &fakeRunner{
		pdfPages: 2,
		tsv: map[string]string{
			"page-1.png": "h\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t100\tfirst\n",
			"page-2.png": "h\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t50\tsecond\n5\t1\t1\t1\t1\t2\t0\t0\t1\t1\t50\tpage\n",
		},
	}
	engine := NewWithRunner(Config{TempDir: t.TempDir()}, runner, nil)

	got, err := engine.RecognizePDF(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("RecognizePDF() error = %v", err)
	}
	if got.Text != "first\n\nsecond page" {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.Pages != 2 {
		t.Fatalf("unexpected page count: %d", got.Pages)
	}
	// (100 + 50 + 50) / 3 words
	if got.Confidence < 66.6 || got.Confidence > 66.7 {
		t.Fatalf("unexpected confidence: %f", got.Confidence)
	}
}

func TestRecognizePDFMaxPagesAndNoPages(t *testing.T) {
	runner := &fakeRunner{pdfPages: 3}
	engine := NewWithRunner(Config{TempDir: t.TempDir(), MaxPages: 1}, runner, nil)
	got, err := engine.RecognizePDF(context.Background(), []byte("%PDF"))
	if err != nil || got.Pages != 1 {
		t.Fatalf("expected one page, got %+v err=%v", got, err)
	}

	empty := NewWithRunner(Config{TempDir: t.TempDir()}, &fakeRunner{}, nil)
	if _, err := empty.RecognizePDF(context.Background(), []byte("%PDF")); !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected extraction failed when nothing is rendered, got %v", err)
	}
}
