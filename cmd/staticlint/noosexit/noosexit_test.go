package noosexit_test

import (
	"testing"

	"github.com/issafronov/siteredirect/cmd/staticlint/noosexit"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), noosexit.Analyzer, "bad", "good", "notmain")
}
