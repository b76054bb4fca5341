// Package tool provides the tools teamgraph workers act with.
//
// Search and scraping:
//
//   - TavilySearch (tavily_search_results_json) and BraveSearch (brave_search)
//   - WebScraper (scrape_webpages), which extracts page text with goquery
//
// Documents, all confined to a Workspace directory:
//
//   - CreateOutline (create_outline)
//   - ReadDocument (read_document)
//   - WriteDocument (write_document)
//   - EditDocument (edit_document)
//
// Code execution:
//
//   - PythonREPL (python_repl_tool)
//
// Every tool implements tools.Tool from langchaingo and describes its JSON
// arguments through Parameters, so the worker passes the model's arguments
// through unchanged:
//
//	ws, _ := tool.NewWorkspace("./workspace")
//	outline, read, _, _ := tool.DocumentTools(ws)
//	result, err := outline.Call(ctx, `{"points":["Intro","Body"],"file_name":"outline.txt"}`)
package tool
