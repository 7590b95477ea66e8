// Package shared holds helpers used by more than one package that belong to
// no single layer. Test helpers live in the testutil subpackage:
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteFile(t, dir, "sales.csv", testutil.LinearSalesCSV(30, start, 100, 5))
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "stage skipped")
package shared
