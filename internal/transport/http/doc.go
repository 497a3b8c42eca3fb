// Package http implements the HTTP handlers of the forecasting web service.
// Handlers stay thin: they decode and validate requests, call the services layer
// and render either JSON or an RFC 7807 problem.
//
// # Routes
//
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//	GET    /api/template            blank manual entry table (becomes current)
//	GET    /api/dataset             current dataset
//	POST   /api/workbooks           multipart "file" upload -> table + load report
//	POST   /api/forecast            {table, start_year, end_year} -> analysis
//	POST   /api/classify            {table} -> classification report
//	POST   /api/export              same body as forecast -> files written
//	POST   /api/chat                {question, table, start_year, end_year} -> reply
//	GET    /api/chat/history
//	DELETE /api/chat/history
//	POST   /api/session/save, /api/session/load
//	GET    /api/library/workbooks   workbooks in the data directory
//	POST   /api/library/workbooks/{name}  load one as the current dataset
//	GET    /api/library/exports     past export runs
//	POST   /api/logs                browser log forwarding
//
// A request without a table works on the current dataset, which is replaced by
// every upload, template request or explicit table.
//
// # Error Handling
//
// Service sentinels are mapped by serviceError; everything else goes through
// errors.ErrorHandler, which renders application/problem+json:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/forecast",
//	    "trace_id": "..."
//	}
package http
