// Package files lists and resolves the workbooks kept in the data directory and
// the export runs written under the export directory.
//
// Discovery scans directories; Manager resolves user supplied names and refuses
// any name that would leave its directory.
//
//	manager := files.NewManager(paths, logger)
//	workbooks, err := manager.Workbooks()
//	path, err := manager.ResolveWorkbook("report.xlsx")
package files
