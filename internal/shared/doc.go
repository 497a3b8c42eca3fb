// Package shared holds helpers used by several packages that belong to no single layer.
//
// The testutil subpackage provides a buffered slog handler for asserting on log output and
// small profit-and-loss table fixtures:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := services.NewAnalysisService(logger, ...)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "forecast computed")
//	}
//
// Nothing here may import business packages; fixtures are built from pkg/contracts/domain only.
package shared
