package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// JUnitReporter writes a JUnit XML document with one testsuite per result and
// one testcase per DOM node. Reported records fail; unmatched and discarded
// nodes are skipped.
type JUnitReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	doc    *etree.Document
	root   *etree.Element

	mu       sync.Mutex
	tests    int
	failures int
	skipped  int
}

// NewJUnitReporter creates a reporter that writes JUnit XML on Close.
func NewJUnitReporter(writer io.WriteCloser, logger *zap.Logger) *JUnitReporter {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", ToolName)
	return &JUnitReporter{
		writer: writer,
		logger: logger.Named("junit_reporter"),
		doc:    doc,
		root:   root,
	}
}

// Write adds a testsuite for result.
func (r *JUnitReporter) Write(result *schemas.DiffResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := suiteName(result)
	suite := r.root.CreateElement("testsuite")
	suite.CreateAttr("name", name)
	suite.CreateAttr("id", result.RunID)
	if !result.CreatedAt.IsZero() {
		suite.CreateAttr("timestamp", result.CreatedAt.UTC().Format("2006-01-02T15:04:05"))
	}

	var tests, failures, skipped int
	for _, rec := range result.Records {
		tc := testCase(suite, name, rec.DomNodeID)
		tc.CreateAttr("designNode", rec.DesignNodeName)
		f := tc.CreateElement("failure")
		f.CreateAttr("type", string(primaryDiscrepancy(orZero(Discrepancies(rec))).Kind))
		f.CreateAttr("message", Summary(rec))
		f.SetText(failureText(rec))
		tests++
		failures++
	}
	for _, id := range result.Passed {
		testCase(suite, name, id)
		tests++
	}
	for _, id := range result.Unmatched {
		tc := testCase(suite, name, id)
		tc.CreateElement("skipped").CreateAttr("message", "no design counterpart")
		tests++
		skipped++
	}
	for _, id := range result.Discarded {
		tc := testCase(suite, name, id)
		tc.CreateElement("skipped").CreateAttr("message", "design counterpart matched a closer element")
		tests++
		skipped++
	}

	suite.CreateAttr("tests", strconv.Itoa(tests))
	suite.CreateAttr("failures", strconv.Itoa(failures))
	suite.CreateAttr("skipped", strconv.Itoa(skipped))
	suite.CreateAttr("errors", "0")
	r.tests += tests
	r.failures += failures
	r.skipped += skipped
	return nil
}

// Close writes the document and closes the writer.
func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.root.CreateAttr("tests", strconv.Itoa(r.tests))
	r.root.CreateAttr("failures", strconv.Itoa(r.failures))
	r.root.CreateAttr("skipped", strconv.Itoa(r.skipped))
	r.doc.Indent(2)

	_, writeErr := r.doc.WriteTo(r.writer)
	closeErr := r.writer.Close()
	if writeErr != nil {
		r.logger.Error("Failed to write JUnit report", zap.Error(writeErr))
		return fmt.Errorf("failed to write JUnit output: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Debug("Wrote JUnit report", zap.Int("tests", r.tests), zap.Int("failures", r.failures))
	return nil
}

func testCase(suite *etree.Element, classname, id string) *etree.Element {
	tc := suite.CreateElement("testcase")
	tc.CreateAttr("classname", classname)
	tc.CreateAttr("name", id)
	return tc
}

func failureText(rec schemas.DiffRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "element %s against design node %q (%s)\n", rec.DomNodeID, rec.DesignNodeName, rec.DesignNodeID)
	for _, d := range Discrepancies(rec) {
		fmt.Fprintf(&b, "  %s\n", d)
	}
	fmt.Fprintf(&b, "match confidence %.2f", rec.Match.Confidence)
	return b.String()
}

func orZero(ds []Discrepancy) []Discrepancy {
	if len(ds) == 0 {
		return []Discrepancy{{}}
	}
	return ds
}
